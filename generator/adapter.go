package generator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Generator produces one joke for a prompt. ok is false when nothing usable came back;
// failures are handled inside the implementation and never reach the caller.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (joke string, ok bool)
}

// Adapter turns an LLMClient into a Generator: it sends the fixed comedian instruction,
// cleans the reply and converts every error into a logged absence.
type Adapter struct {
	llm     LLMClient
	logger  *zap.Logger
	flatten bool
}

type AdapterOption func(*Adapter)

// WithMarkdownFlattening strips Markdown from replies before they are returned.
func WithMarkdownFlattening(enabled bool) AdapterOption {
	return func(a *Adapter) { a.flatten = enabled }
}

func NewAdapter(llm LLMClient, logger *zap.Logger, opts ...AdapterOption) (*Adapter, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{llm: llm, logger: logger.With(zap.String("provider", llm.Name()))}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Adapter) Name() string { return a.llm.Name() }

func (a *Adapter) Generate(ctx context.Context, prompt string) (string, bool) {
	if strings.TrimSpace(prompt) == "" {
		a.logger.Error("empty prompt, skipping provider")
		return "", false
	}

	start := time.Now()
	raw, err := a.llm.Complete(ctx, BuildJokePrompt(prompt))
	if err != nil {
		a.logger.Error("provider request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", false
	}
	joke, err := PostProcess(raw)
	if err == nil && a.flatten {
		joke, err = FlattenMarkdown(joke)
	}
	if err != nil {
		a.logger.Error("provider reply unusable", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return "", false
	}
	a.logger.Debug("provider replied", zap.Int("len", len(joke)), zap.Duration("elapsed", time.Since(start)))
	return joke, true
}
