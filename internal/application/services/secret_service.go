package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/provia/proofbridge/configs"
	"github.com/provia/proofbridge/internal/core/domain/auth"
	"github.com/provia/proofbridge/internal/core/ports"
	"github.com/provia/proofbridge/internal/utils"
)

// MinSecretLength is the shortest signing secret accepted from any source.
// Shorter values are treated as misconfiguration, not used.
const MinSecretLength = 32

// SecretService caches a single secret value with a shared TTL in front of
// the durable store. Fetches are retried with exponential backoff, and
// concurrent refreshes are coalesced so a burst of requests arriving on an
// expired cache triggers one store fetch, not a storm.
type SecretService struct {
	store    ports.SecretStore
	fallback string
	cacheTTL time.Duration
	retry    utils.RetryConfig
	alerts   ports.AlertService
	logger   *logrus.Logger
	now      func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	cachedValue string
	fetchedAt   time.Time
}

func NewSecretService(store ports.SecretStore, cfg *configs.HMACConfig, alerts ports.AlertService, logger *logrus.Logger) *SecretService {
	return &SecretService{
		store:    store,
		fallback: cfg.FallbackSecret,
		cacheTTL: cfg.CacheTTL,
		retry: utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryDelay,
			Factor:      cfg.RetryFactor,
		},
		alerts: alerts,
		logger: logger,
		now:    time.Now,
	}
}

// GetSecret implements ports.SecretProvider. It returns the cached value
// while fresh, otherwise refetches from the store. Exhausted retries fall
// back to the statically configured secret when one of acceptable length
// exists; that path bypasses the durable store and is logged accordingly.
func (s *SecretService) GetSecret(ctx context.Context, name string) (string, error) {
	if v, ok := s.cached(); ok {
		return v, nil
	}

	val, err, shared := s.group.Do(name, func() (interface{}, error) {
		// A caller that queued behind the winning refresh sees the fresh value.
		if v, ok := s.cached(); ok {
			return v, nil
		}
		return s.refresh(ctx, name)
	})
	if err != nil {
		return "", err
	}
	if shared && s.logger != nil {
		s.logger.WithField("secret", name).Debug("secret refresh shared with in-flight fetch")
	}
	return val.(string), nil
}

// Invalidate implements ports.SecretProvider, dropping the cached value so
// the next caller refetches. Used when the secret is rotated.
func (s *SecretService) Invalidate() {
	s.mu.Lock()
	s.cachedValue = ""
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("cached signing secret invalidated")
	}
}

func (s *SecretService) cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cachedValue == "" {
		return "", false
	}
	if s.now().Sub(s.fetchedAt) > s.cacheTTL {
		return "", false
	}
	return s.cachedValue, true
}

func (s *SecretService) refresh(ctx context.Context, name string) (string, error) {
	var fetched string
	err := utils.Retry(ctx, s.retry, func(ctx context.Context) error {
		v, err := s.store.GetSecret(ctx, name)
		if err != nil {
			if s.logger != nil {
				s.logger.WithError(err).WithField("secret", name).Warn("secret store fetch failed")
			}
			return err
		}
		if len(v) < MinSecretLength {
			return fmt.Errorf("secret %q shorter than %d characters", name, MinSecretLength)
		}
		fetched = v
		return nil
	})
	if err == nil {
		s.cache(fetched)
		return fetched, nil
	}

	if len(s.fallback) >= MinSecretLength {
		// Elevated severity: the durable store is being bypassed.
		if s.logger != nil {
			s.logger.WithError(err).WithField("secret", name).Error("secret store unavailable, using configured fallback secret")
		}
		if s.alerts != nil {
			if alertErr := s.alerts.SecretFallbackEngaged(ctx, name, err); alertErr != nil && s.logger != nil {
				s.logger.WithError(alertErr).Warn("failed to send secret fallback alert")
			}
		}
		s.cache(s.fallback)
		return s.fallback, nil
	}

	return "", fmt.Errorf("%w: %w: %w", auth.ErrSecretUnavailable, auth.ErrSecretFetchExhausted, err)
}

func (s *SecretService) cache(v string) {
	s.mu.Lock()
	s.cachedValue = v
	s.fetchedAt = s.now()
	s.mu.Unlock()
}
