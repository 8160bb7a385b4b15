package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Sleep: noSleep(t, nil)}, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRetryExponentialSpacing(t *testing.T) {
	var delays []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, Factor: 2.0, Sleep: sleep}, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})
	require.Error(t, err)
	require.Equal(t, 4, calls)
	// delay = base * factor^(attempt-1); no sleep after the final attempt.
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, delays)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Retry(context.Background(), RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
		Sleep:       noSleep(t, nil),
	}, func(ctx context.Context) error {
		calls++
		return fatal
	})
	require.ErrorIs(t, err, fatal)
	require.Equal(t, 1, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	err := Retry(ctx, RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Sleep: sleep}, func(ctx context.Context) error {
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
}

// noSleep fails the test if the retry loop tries to wait.
func noSleep(t *testing.T, _ error) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		t.Helper()
		t.Fatalf("unexpected sleep of %s", d)
		return nil
	}
}
