package powerapps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/configs"
	"github.com/provia/proofbridge/internal/core/domain/proof"
	"github.com/provia/proofbridge/internal/core/ports"
)

// Endpoint posts relayed events to the configured PowerApps HTTP trigger.
// Retry policy lives in the relay service; this type does exactly one POST.
type Endpoint struct {
	url    string
	http   *http.Client
	logger *logrus.Logger
}

func NewEndpoint(cfg *configs.PowerAppsConfig, logger *logrus.Logger) *Endpoint {
	return &Endpoint{
		url:    cfg.EndpointURL,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
}

// Deliver implements ports.RelayEndpoint. Any non-2xx response is an error so
// the caller's retry policy applies.
func (e *Endpoint) Deliver(ctx context.Context, event *proof.WebhookEvent) error {
	b, err := json.Marshal(map[string]interface{}{
		"event_id":    event.EventID,
		"event_type":  event.Type,
		"proof_id":    event.ProofID,
		"status":      event.Status,
		"reference":   event.Reference,
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("powerapps delivery: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"event_id": event.EventID,
			"status":   resp.StatusCode,
			"elapsed":  time.Since(start).String(),
		}).Debug("powerapps delivery attempt")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("powerapps delivery: status %d", resp.StatusCode)
	}
	return nil
}

var _ ports.RelayEndpoint = (*Endpoint)(nil)
