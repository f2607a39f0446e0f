package publisher

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Config holds the platform credentials and the dry-run switch.
type Config struct {
	Credentials Credentials
	// DryRun shapes and logs every post but never submits one.
	DryRun  bool
	BaseURL string
}

// Receipt records one post the platform accepted.
type Receipt struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Joke string `json:"joke"`
}

// Publisher shapes jokes into posts and submits them one at a time, in order. A
// Publisher is shared by concurrent cycles; their batches never interleave.
type Publisher struct {
	// mu is held for a whole batch: the platform has a single rate limit.
	mu     sync.Mutex
	poster Poster
	dryRun bool
	// err is set when the publisher could not be initialised; every submission is then a no-op.
	err    error
	logger *zap.Logger
}

// New creates a Publisher for the X API. Missing credentials do not fail construction:
// the publisher is disabled and reports every attempt as a logged failure.
func New(cfg Config, client *http.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{dryRun: cfg.DryRun, logger: logger}

	poster, err := NewTwitterPoster(cfg.Credentials, cfg.BaseURL, client, logger)
	if err != nil {
		logger.Error("Missing Twitter API credentials", zap.Strings("missing", cfg.Credentials.Missing()))
		p.err = err
		return p
	}
	p.poster = poster
	logger.Info("Twitter client initialized successfully", zap.Bool("dry_run", cfg.DryRun))
	return p
}

// NewWithPoster wires an arbitrary Poster; a nil poster yields a disabled publisher.
func NewWithPoster(poster Poster, dryRun bool, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{poster: poster, dryRun: dryRun, logger: logger}
	if poster == nil {
		p.err = ErrDisabled
	}
	return p
}

// Enabled reports whether real submissions can happen.
func (p *Publisher) Enabled() bool { return p.err == nil && !p.dryRun }

func (p *Publisher) DryRun() bool { return p.dryRun }

// Preview shapes jokes exactly as PublishAll would, skipping empty ones.
func (p *Publisher) Preview(jokes []string) []Post {
	posts := make([]Post, 0, len(jokes))
	for i, joke := range jokes {
		if strings.TrimSpace(joke) == "" {
			continue
		}
		posts = append(posts, FormatPost(i+1, joke))
	}
	return posts
}

// PublishAll submits each joke sequentially. A failed post is logged and skipped;
// receipts come back in input order, one per accepted post.
func (p *Publisher) PublishAll(ctx context.Context, jokes []string) []Receipt {
	p.mu.Lock()
	defer p.mu.Unlock()

	receipts := []Receipt{}
	for _, post := range p.Preview(jokes) {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("publishing interrupted", zap.Int("index", post.Index), zap.Error(err))
			break
		}
		log := p.logger.With(zap.Int("index", post.Index))
		if post.Truncated {
			log.Info("post truncated to platform limit")
		}

		if p.dryRun {
			log.Info("dry run, post not submitted", zap.String("text", post.Text))
			continue
		}
		if p.err != nil {
			log.Error("Twitter client not initialized", zap.Error(p.err))
			continue
		}

		id, err := p.poster.Post(ctx, post.Text)
		if err != nil {
			log.Error("Failed to post tweet", zap.String("platform", p.poster.Platform()), zap.Error(err))
			continue
		}
		log.Info("Tweet posted successfully", zap.String("id", id))
		receipts = append(receipts, Receipt{ID: id, Text: post.Text, Joke: post.Joke})
	}
	return receipts
}
