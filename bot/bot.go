// Package bot runs generation/publishing cycles. RunOnce never fails: every error inside a
// cycle is logged and turned into a nil report, so RunContinuous can loop forever.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jokebot/generator"
	"jokebot/publisher"
)

const (
	DefaultInterval = 60 * time.Minute
	// Cooldown is the pause after a cycle that failed unexpectedly.
	Cooldown = 5 * time.Minute
)

// JokeSource is satisfied by *generator.Coordinator.
type JokeSource interface {
	GetResults(ctx context.Context, prompt string) []string
}

// JokePublisher is satisfied by *publisher.Publisher.
type JokePublisher interface {
	PublishAll(ctx context.Context, jokes []string) []publisher.Receipt
}

// Report describes one cycle that produced at least one joke.
type Report struct {
	ID       string              `json:"id"`
	Prompt   string              `json:"prompt"`
	Jokes    []string            `json:"jokes"`
	Receipts []publisher.Receipt `json:"receipts"`
}

type Bot struct {
	source  JokeSource
	pub     JokePublisher
	prompts []string
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand

	after    func(time.Duration) <-chan time.Time
	cooldown time.Duration
}

type Option func(*Bot)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPrompts replaces the prompt catalog used when no prompt is supplied.
func WithPrompts(prompts []string) Option {
	return func(b *Bot) {
		if len(prompts) > 0 {
			b.prompts = prompts
		}
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(b *Bot) { b.rng = rng }
}

// WithClock swaps the timer used between continuous cycles.
func WithClock(after func(time.Duration) <-chan time.Time) Option {
	return func(b *Bot) { b.after = after }
}

func New(source JokeSource, pub JokePublisher, opts ...Option) (*Bot, error) {
	if source == nil {
		return nil, errors.New("joke source is required")
	}
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	b := &Bot{
		source:   source,
		pub:      pub,
		prompts:  generator.Catalog,
		logger:   zap.NewNop(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		after:    time.After,
		cooldown: Cooldown,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// RunOnce runs a single cycle with prompt, or a catalog prompt when prompt is blank.
// It returns nil when no joke was generated or the cycle failed.
func (b *Bot) RunOnce(ctx context.Context, prompt string) *Report {
	report, err := b.runCycle(ctx, prompt)
	if err != nil {
		b.logger.Error("cycle failed", zap.Error(err))
		return nil
	}
	return report
}

// RunContinuous runs a cycle every interval until ctx is cancelled. After a failed cycle
// it waits Cooldown instead of interval.
func (b *Bot) RunContinuous(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	b.logger.Info("Starting continuous mode", zap.Duration("interval", interval))

	for ctx.Err() == nil {
		wait := interval
		if _, err := b.runCycle(ctx, ""); err != nil {
			b.logger.Error("Error in continuous mode", zap.Error(err), zap.Duration("cooldown", b.cooldown))
			wait = b.cooldown
		} else {
			b.logger.Info("Waiting until next cycle", zap.Duration("wait", wait))
		}

		select {
		case <-ctx.Done():
		case <-b.after(wait):
		}
	}
	b.logger.Info("Bot stopped", zap.Error(ctx.Err()))
}

func (b *Bot) runCycle(ctx context.Context, override string) (report *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = nil, fmt.Errorf("cycle panicked: %v", r)
		}
	}()

	id := uuid.NewString()
	log := b.logger.With(zap.String("cycle", id))
	log.Info("Starting joke generation and posting cycle")

	prompt := strings.TrimSpace(override)
	if prompt == "" {
		prompt = b.pickPrompt()
	}
	log.Info("Using prompt", zap.String("prompt", prompt))

	jokes := b.source.GetResults(ctx, prompt)
	if len(jokes) == 0 {
		log.Warn("No jokes generated")
		return nil, nil
	}
	log.Info("Generated jokes", zap.Int("count", len(jokes)))
	for i, joke := range jokes {
		log.Info("Joke", zap.Int("n", i+1), zap.String("joke", joke))
	}

	receipts := b.pub.PublishAll(ctx, jokes)
	if len(receipts) > 0 {
		log.Info("Successfully posted tweets", zap.Int("count", len(receipts)))
	} else {
		log.Warn("No tweets were posted")
	}
	return &Report{ID: id, Prompt: prompt, Jokes: jokes, Receipts: receipts}, nil
}

func (b *Bot) pickPrompt() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prompts[b.rng.Intn(len(b.prompts))]
}
