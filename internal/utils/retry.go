package utils

import (
	"context"
	"time"
)

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the
// latter case. Tests inject a fake to assert backoff spacing without real sleeps.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryConfig parameterizes Retry. Zero values fall back to a single attempt
// with no delay.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	// Retryable decides whether an error is worth another attempt.
	// nil means every error is retryable.
	Retryable func(error) bool
	// Sleep defaults to ContextSleep.
	Sleep SleepFunc
}

// Retry runs op up to MaxAttempts times, doubling (or Factor-ing) the delay
// between attempts: delay = BaseDelay * Factor^(attempt-1). It returns nil on
// the first success, the last error once attempts are exhausted, or early if
// the error is not retryable or the context is cancelled while waiting.
func Retry(ctx context.Context, cfg RetryConfig, op func(ctx context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	factor := cfg.Factor
	if factor <= 0 {
		factor = 2.0
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	var lastErr error
	delay := cfg.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
		delay = time.Duration(float64(delay) * factor)
	}
	return lastErr
}
