package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Coordinator fans one prompt out to every registered Generator and collects the jokes
// in registration order.
type Coordinator struct {
	providers []Generator
	logger    *zap.Logger
}

func NewCoordinator(logger *zap.Logger, providers ...Generator) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{logger: logger}
	for _, p := range providers {
		c.Register(p)
	}
	return c
}

// Register appends a provider. It must not be called while GetResults is running.
func (c *Coordinator) Register(p Generator) {
	if p == nil {
		return
	}
	c.providers = append(c.providers, p)
}

// Providers lists provider names in registration order.
func (c *Coordinator) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

type outcome struct {
	joke string
	ok   bool
	err  error
}

// GetResults waits for every provider to finish. No provider is cancelled or timed out here;
// each one enforces its own request timeout.
func (c *Coordinator) GetResults(ctx context.Context, prompt string) []string {
	jokes := []string{}
	if len(c.providers) == 0 {
		c.logger.Warn("No LLM clients configured")
		return jokes
	}

	outcomes := make([]outcome, len(c.providers))
	var g errgroup.Group
	for i, p := range c.providers {
		g.Go(func() error {
			outcomes[i] = generate(ctx, p, prompt)
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		name := c.providers[i].Name()
		switch {
		case o.err != nil:
			c.logger.Error("Error getting joke", zap.String("provider", name), zap.Error(o.err))
		case !o.ok || o.joke == "":
			c.logger.Warn("provider produced no joke", zap.String("provider", name))
		default:
			jokes = append(jokes, o.joke)
		}
	}
	return jokes
}

func generate(ctx context.Context, p Generator, prompt string) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: fmt.Errorf("provider panicked: %v", r)}
		}
	}()
	joke, ok := p.Generate(ctx, prompt)
	return outcome{joke: joke, ok: ok}
}
