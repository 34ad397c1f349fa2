// Package retryutil provides a bounded retry combinator for calls against
// eventually-consistent or flaky upstreams (the TON ledger may not have
// indexed a just-broadcast transaction yet).
package retryutil

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	MaxAttempts int           // total attempts, including the first one
	Delay       time.Duration // fixed delay between attempts
}

// Do runs op up to cfg.MaxAttempts times with a fixed delay between attempts.
// retryable decides whether an error is worth another attempt; a nil predicate
// retries everything. Context cancellation always stops the loop and returns
// ctx.Err(). The last error is returned after the attempts are exhausted.
func Do[T any](ctx context.Context, cfg Config, log *zap.Logger, op func(ctx context.Context) (T, error), retryable func(error) bool) (T, error) {
	var result T
	var err error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}

		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if retryable != nil && !retryable(err) {
			return result, err
		}

		if attempt == attempts {
			break
		}

		log.Debug("retrying operation",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", cfg.Delay),
			zap.Error(err),
		)

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	return result, err
}
