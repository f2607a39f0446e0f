package publisher

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDisabled    = errors.New("publisher disabled: missing platform credentials")
	ErrRateLimited = errors.New("rate limited")
)

// Poster submits a single post and returns the platform's post ID.
type Poster interface {
	Platform() string
	Post(ctx context.Context, text string) (string, error)
}

// APIError is a non-2xx answer from the platform.
type APIError struct {
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("failed to post: %d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("failed to post: %d %s", e.Status, e.Title)
}
