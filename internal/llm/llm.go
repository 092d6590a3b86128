package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable covers transport failures, timeouts and 5xx responses.
	ErrUnavailable = errors.New("language model unavailable")
	// ErrRateLimited means the backend asked the caller to slow down.
	ErrRateLimited = errors.New("language model rate limited")
)

// Completer sends a single prompt to a language model and returns its raw text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// PlaceholderClient is used when no provider is configured. Every call fails
// as unavailable so documents end up failed instead of silently empty.
type PlaceholderClient struct{}

// Complete returns ErrUnavailable.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", ErrUnavailable
}
