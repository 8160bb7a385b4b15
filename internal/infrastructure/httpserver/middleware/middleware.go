package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	HMAC    *HMACMiddleware
	Webhook *WebhookMiddleware
	Logging *LoggingMiddleware
	Metrics *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	signatures ports.SignatureService,
	cache ports.Cache,
	verifyCacheTTL time.Duration,
	logger *logrus.Logger,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
	authOutcomes *prometheus.CounterVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		HMAC:    NewHMACMiddleware(signatures, cache, verifyCacheTTL, authOutcomes, logger),
		Webhook: NewWebhookMiddleware(signatures, logger),
		Logging: NewLoggingMiddleware(logger),
		Metrics: NewMetricsMiddleware(requestsTotal, requestDuration),
	}
}
