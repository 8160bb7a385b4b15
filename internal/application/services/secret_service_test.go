package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/provia/proofbridge/configs"
	"github.com/provia/proofbridge/internal/core/domain/auth"
	"github.com/provia/proofbridge/internal/core/domain/delivery"
	"github.com/provia/proofbridge/internal/utils"
)

type secretStoreStub struct {
	fn    func(ctx context.Context, name string) (string, error)
	calls int
}

func (s *secretStoreStub) GetSecret(ctx context.Context, name string) (string, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, name)
	}
	return "", errors.New("store unavailable")
}

type alertRecorder struct {
	fallbacks int
	exhausted int
}

func (a *alertRecorder) SecretFallbackEngaged(ctx context.Context, secretName string, cause error) error {
	a.fallbacks++
	return nil
}

func (a *alertRecorder) DeliveryExhausted(ctx context.Context, d *delivery.Delivery) error {
	a.exhausted++
	return nil
}

func hmacTestConfig() *configs.HMACConfig {
	return &configs.HMACConfig{
		SecretName:  "test-secret",
		Timeout:     5 * time.Minute,
		CacheTTL:    time.Minute,
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		RetryFactor: 2.0,
	}
}

func quietSleep(delays *[]time.Duration) utils.SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}
}

func TestGetSecretCachesValue(t *testing.T) {
	valid := strings.Repeat("a", MinSecretLength)
	store := &secretStoreStub{fn: func(ctx context.Context, name string) (string, error) { return valid, nil }}
	svc := NewSecretService(store, hmacTestConfig(), nil, nil)

	got, err := svc.GetSecret(context.Background(), "test-secret")
	require.NoError(t, err)
	require.Equal(t, valid, got)

	got, err = svc.GetSecret(context.Background(), "test-secret")
	require.NoError(t, err)
	require.Equal(t, valid, got)
	require.Equal(t, 1, store.calls)
}

func TestGetSecretRefreshesAfterTTL(t *testing.T) {
	valid := strings.Repeat("a", MinSecretLength)
	store := &secretStoreStub{fn: func(ctx context.Context, name string) (string, error) { return valid, nil }}
	svc := NewSecretService(store, hmacTestConfig(), nil, nil)

	now := time.Now()
	svc.now = func() time.Time { return now }

	_, err := svc.GetSecret(context.Background(), "test-secret")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.GetSecret(context.Background(), "test-secret")
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}

func TestGetSecretRejectsShortValues(t *testing.T) {
	store := &secretStoreStub{fn: func(ctx context.Context, name string) (string, error) { return "too-short", nil }}
	svc := NewSecretService(store, hmacTestConfig(), nil, nil)
	svc.retry.Sleep = quietSleep(nil)

	_, err := svc.GetSecret(context.Background(), "test-secret")
	require.ErrorIs(t, err, auth.ErrSecretUnavailable)
	require.Equal(t, 3, store.calls)
}

func TestGetSecretFallbackAfterExhaustedRetries(t *testing.T) {
	fallback := strings.Repeat("f", MinSecretLength)
	cfg := hmacTestConfig()
	cfg.FallbackSecret = fallback

	store := &secretStoreStub{}
	alerts := &alertRecorder{}
	svc := NewSecretService(store, cfg, alerts, nil)

	var delays []time.Duration
	svc.retry.Sleep = quietSleep(&delays)

	got, err := svc.GetSecret(context.Background(), "test-secret")
	require.NoError(t, err)
	require.Equal(t, fallback, got)
	require.Equal(t, 3, store.calls)
	require.Equal(t, 1, alerts.fallbacks)
	// Exponential backoff between the three attempts.
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestGetSecretExhaustedWithoutFallback(t *testing.T) {
	store := &secretStoreStub{}
	svc := NewSecretService(store, hmacTestConfig(), nil, nil)
	svc.retry.Sleep = quietSleep(nil)

	_, err := svc.GetSecret(context.Background(), "test-secret")
	require.ErrorIs(t, err, auth.ErrSecretUnavailable)
	require.ErrorIs(t, err, auth.ErrSecretFetchExhausted)
}

func TestGetSecretShortFallbackNotUsed(t *testing.T) {
	cfg := hmacTestConfig()
	cfg.FallbackSecret = "short"

	store := &secretStoreStub{}
	svc := NewSecretService(store, cfg, nil, nil)
	svc.retry.Sleep = quietSleep(nil)

	_, err := svc.GetSecret(context.Background(), "test-secret")
	require.ErrorIs(t, err, auth.ErrSecretUnavailable)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	valid := strings.Repeat("a", MinSecretLength)
	store := &secretStoreStub{fn: func(ctx context.Context, name string) (string, error) { return valid, nil }}
	svc := NewSecretService(store, hmacTestConfig(), nil, nil)

	_, err := svc.GetSecret(context.Background(), "test-secret")
	require.NoError(t, err)

	svc.Invalidate()

	_, err = svc.GetSecret(context.Background(), "test-secret")
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}
