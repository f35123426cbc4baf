package backend

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/domain"
)

// withRetry runs fn up to policy.MaxAttempts times with exponential backoff
// between attempts. Each attempt either returns a result or advances the
// counter; the loop terminates deterministically at MaxAttempts or when the
// context is cancelled.
func withRetry(
	ctx context.Context,
	policy domain.RetryPolicy,
	log *zap.Logger,
	name string,
	fn func(context.Context) (domain.GeneratedCommand, error),
) (domain.GeneratedCommand, error) {
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if delay := policy.Delay(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return domain.GeneratedCommand{}, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return domain.GeneratedCommand{}, lastErr
		}
		log.Warn("generation attempt failed",
			zap.String("backend", name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.MaxAttempts),
			zap.Error(err),
		)
	}
	return domain.GeneratedCommand{}, lastErr
}
