package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/domain/proof"
	customMiddleware "github.com/provia/proofbridge/internal/infrastructure/httpserver/middleware"
)

// handlePageProofWebhook handles POST /webhooks/pageproof. The signature has
// already been verified over the raw bytes by the webhook middleware; this
// handler parses those same bytes and relays the event downstream.
func (s *Server) handlePageProofWebhook(c echo.Context) error {
	raw, ok := c.Get(customMiddleware.RawBodyKey).([]byte)
	if !ok || len(raw) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "missing request body")
	}

	var event proof.WebhookEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}
	if event.ProofID == "" || !event.Type.Known() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"type": event.Type, "proof_id": event.ProofID}).Warn("ignoring unknown webhook event")
		}
		// Acknowledge so the platform does not keep retrying an event this
		// service will never handle.
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	d, err := s.relaySvc.Relay(c.Request().Context(), &event)
	if err != nil {
		relayDeliveriesTotal.WithLabelValues("exhausted").Inc()
		// The delivery record holds the details; surface a service fault so
		// the platform may retry later.
		return echo.NewHTTPError(http.StatusBadGateway, "failed to relay event downstream")
	}
	relayDeliveriesTotal.WithLabelValues("delivered").Inc()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "relayed",
		"delivery_id": d.ID,
		"attempts":    d.Attempts,
	})
}
