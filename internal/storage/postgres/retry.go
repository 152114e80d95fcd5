package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 10 * time.Second
)

// retryPolicy bounds how long the store waits for the database. Delays double
// from Backoff and are capped at maxRetryDelay.
type retryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.Backoff
	if d <= 0 {
		d = defaultRetryDelay
	}
	for i := 0; i < attempt && d < maxRetryDelay; i++ {
		d *= 2
	}
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}

// retry runs op until it succeeds, the policy is exhausted or ctx is done.
// Context errors returned by op are not retried.
func retry(ctx context.Context, policy retryPolicy, logger *zap.Logger, op string, fn func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	retries := policy.MaxRetries
	if retries < 0 {
		retries = 0
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("postgres ready", zap.String("op", op), zap.Int("attempts", attempt+1))
			}
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt >= retries {
			return fmt.Errorf("%s failed after %d attempts: %w", op, attempt+1, err)
		}

		wait := policy.delay(attempt)
		logger.Warn("postgres unavailable, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", retries+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
