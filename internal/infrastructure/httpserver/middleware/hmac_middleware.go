package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/domain/auth"
	"github.com/provia/proofbridge/internal/core/ports"
)

const (
	HeaderTimestamp = "x-timestamp"
	HeaderSignature = "x-signature"
)

// HMACMiddleware authenticates inbound API requests with the timestamp
// signature scheme. Verification outcomes are cached briefly keyed on the
// (timestamp, signature) pair, so a retried request does not recompute the
// HMAC or touch the secret provider.
type HMACMiddleware struct {
	signatures ports.SignatureService
	cache      ports.Cache
	cacheTTL   time.Duration
	outcomes   *prometheus.CounterVec
	logger     *logrus.Logger
}

func NewHMACMiddleware(signatures ports.SignatureService, cache ports.Cache, cacheTTL time.Duration, outcomes *prometheus.CounterVec, logger *logrus.Logger) *HMACMiddleware {
	var resultCache ports.Cache
	if cache != nil {
		resultCache = cache.Namespace("verify")
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &HMACMiddleware{
		signatures: signatures,
		cache:      resultCache,
		cacheTTL:   cacheTTL,
		outcomes:   outcomes,
		logger:     logger,
	}
}

// Require creates middleware that rejects requests without a valid
// timestamp signature.
func (m *HMACMiddleware) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Header.Get returns the first value when a header arrives more than once.
			timestamp := c.Request().Header.Get(HeaderTimestamp)
			signature := c.Request().Header.Get(HeaderSignature)
			if timestamp == "" || signature == "" {
				m.observe("missing_headers")
				m.logRejection(c, start, "", "missing authentication headers")
				return echo.NewHTTPError(http.StatusBadRequest, auth.ErrMissingCredentials.Error())
			}

			cacheKey := timestamp + ":" + signature
			if res, ok := m.cachedResult(c, cacheKey); ok {
				if res.IsValid {
					m.observe("allowed_cached")
					return next(c)
				}
				m.observe("rejected_cached")
				m.logRejection(c, start, signature, string(res.Reason))
				return echo.NewHTTPError(http.StatusUnauthorized, res.Reason.Message())
			}

			res, err := m.signatures.VerifyTimestamp(c.Request().Context(), timestamp, signature)
			if err != nil {
				// Service fault, not a client fault: surfaced as 5xx so the
				// caller can tell "cannot verify" from "signature invalid".
				m.observe("verify_unavailable")
				if m.logger != nil {
					m.logger.WithError(err).WithFields(logrus.Fields{
						"ip":      c.RealIP(),
						"path":    c.Request().URL.Path,
						"elapsed": time.Since(start).String(),
					}).Error("signature verification unavailable")
				}
				if errors.Is(err, auth.ErrSecretUnavailable) {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "unable to verify request")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "unable to verify request")
			}

			m.cacheResult(c, cacheKey, res)

			if !res.IsValid {
				m.observe("rejected")
				m.logRejection(c, start, signature, string(res.Reason))
				return echo.NewHTTPError(http.StatusUnauthorized, res.Reason.Message())
			}

			m.observe("allowed")
			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{
					"ip":      c.RealIP(),
					"path":    c.Request().URL.Path,
					"elapsed": time.Since(start).String(),
				}).Debug("request signature verified")
			}
			return next(c)
		}
	}
}

func (m *HMACMiddleware) cachedResult(c echo.Context, key string) (*auth.VerificationResult, bool) {
	if m.cache == nil {
		return nil, false
	}
	b, ok := m.cache.Get(c.Request().Context(), key)
	if !ok {
		return nil, false
	}
	var res auth.VerificationResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, false
	}
	return &res, true
}

func (m *HMACMiddleware) cacheResult(c echo.Context, key string, res *auth.VerificationResult) {
	if m.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	_ = m.cache.Set(c.Request().Context(), key, b, m.cacheTTL)
}

// logRejection logs security-relevant rejections at warning severity with
// enough context to spot abuse. Only a signature prefix is logged.
func (m *HMACMiddleware) logRejection(c echo.Context, start time.Time, signature, reason string) {
	if m.logger == nil {
		return
	}
	m.logger.WithFields(logrus.Fields{
		"ip":         c.RealIP(),
		"path":       c.Request().URL.Path,
		"elapsed":    time.Since(start).String(),
		"reason":     reason,
		"sig_prefix": sigPrefix(signature),
	}).Warn("request authentication rejected")
}

func (m *HMACMiddleware) observe(outcome string) {
	if m.outcomes != nil {
		m.outcomes.WithLabelValues(outcome).Inc()
	}
}

func sigPrefix(sig string) string {
	if len(sig) <= 8 {
		return sig
	}
	return sig[:8]
}
