package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type throttled struct {
	next    Completer
	limiter *rate.Limiter
}

// Throttle bounds the request rate to c across all callers sharing the
// returned Completer. rps <= 0 disables throttling.
func Throttle(c Completer, rps float64, burst int) Completer {
	if rps <= 0 {
		return c
	}
	if burst < 1 {
		burst = 1
	}
	return &throttled{next: c, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (t *throttled) Complete(ctx context.Context, prompt string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: throttle wait: %v", ErrUnavailable, err)
	}
	return t.next.Complete(ctx, prompt)
}
