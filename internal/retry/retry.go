// Package retry provides a small fixed-backoff retry policy used when
// establishing the store connection. Commands themselves are never
// retried; exactly one attempt per inbound webhook.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy holds the bounded retry parameters.
type Policy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultPolicy matches the connection discipline of the legacy
// bootstrap: three attempts, one second apart.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Backoff: time.Second}
}

// Do runs fn until it succeeds or the attempts are exhausted. The last
// error is returned wrapped; callers treat it as fatal.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, label string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		logger.Warn("attempt failed", "label", label, "attempt", attempt, "max_attempts", attempts, "error", lastErr)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", label, attempts, lastErr)
}
