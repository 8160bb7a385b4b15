package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/configs"
	"github.com/provia/proofbridge/internal/core/domain/delivery"
	"github.com/provia/proofbridge/internal/core/domain/proof"
	"github.com/provia/proofbridge/internal/core/ports"
	"github.com/provia/proofbridge/internal/utils"
)

// RelayService forwards platform webhook events to the downstream workflow
// endpoint, retrying with exponential backoff and recording every delivery
// chain. Exhausted deliveries raise an operator alert; the event is not
// re-queued beyond the configured retries.
type RelayService struct {
	endpoint   ports.RelayEndpoint
	deliveries ports.DeliveryRepository
	alerts     ports.AlertService
	retry      utils.RetryConfig
	logger     *logrus.Logger
	now        func() time.Time
}

func NewRelayService(endpoint ports.RelayEndpoint, deliveries ports.DeliveryRepository, alerts ports.AlertService, cfg *configs.PowerAppsConfig, logger *logrus.Logger) *RelayService {
	retry := utils.RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Factor: 2.0}
	if cfg != nil {
		if cfg.MaxRetries > 0 {
			retry.MaxAttempts = cfg.MaxRetries
		}
		if cfg.RetryDelay > 0 {
			retry.BaseDelay = cfg.RetryDelay
		}
		if cfg.RetryFactor > 0 {
			retry.Factor = cfg.RetryFactor
		}
	}
	return &RelayService{
		endpoint:   endpoint,
		deliveries: deliveries,
		alerts:     alerts,
		retry:      retry,
		logger:     logger,
		now:        time.Now,
	}
}

// Relay implements ports.RelayService. The returned delivery record reflects
// the final outcome; a non-nil error accompanies an exhausted delivery.
func (s *RelayService) Relay(ctx context.Context, event *proof.WebhookEvent) (*delivery.Delivery, error) {
	d := &delivery.Delivery{
		ID:        uuid.New(),
		EventID:   event.EventID,
		EventType: string(event.Type),
		ProofID:   event.ProofID,
		Outcome:   delivery.OutcomePending,
		CreatedAt: s.now(),
	}
	if s.deliveries != nil {
		if err := s.deliveries.Create(ctx, d); err != nil && s.logger != nil {
			// Delivery proceeds even when bookkeeping fails.
			s.logger.WithError(err).WithField("event_id", event.EventID).Warn("failed to record delivery start")
		}
	}

	err := utils.Retry(ctx, s.retry, func(ctx context.Context) error {
		d.Attempts++
		attemptErr := s.endpoint.Deliver(ctx, event)
		if attemptErr != nil && s.logger != nil {
			s.logger.WithError(attemptErr).WithFields(logrus.Fields{
				"event_id": event.EventID,
				"attempt":  d.Attempts,
			}).Warn("downstream delivery attempt failed")
		}
		return attemptErr
	})

	done := s.now()
	d.CompletedAt = &done
	if err != nil {
		d.Outcome = delivery.OutcomeExhausted
		d.LastError = err.Error()
	} else {
		d.Outcome = delivery.OutcomeDelivered
		d.LastError = ""
	}
	if s.deliveries != nil {
		if updErr := s.deliveries.Update(ctx, d); updErr != nil && s.logger != nil {
			s.logger.WithError(updErr).WithField("event_id", event.EventID).Warn("failed to record delivery outcome")
		}
	}

	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": event.EventID,
				"attempts": d.Attempts,
			}).Error("delivery retries exhausted")
		}
		if s.alerts != nil {
			if alertErr := s.alerts.DeliveryExhausted(ctx, d); alertErr != nil && s.logger != nil {
				s.logger.WithError(alertErr).Warn("failed to send delivery exhausted alert")
			}
		}
		return d, err
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"event_id": event.EventID,
			"type":     event.Type,
			"attempts": d.Attempts,
		}).Info("event relayed downstream")
	}
	return d, nil
}
