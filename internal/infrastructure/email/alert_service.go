package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/configs"
	"github.com/provia/proofbridge/internal/core/domain/delivery"
	"github.com/provia/proofbridge/internal/core/ports"
)

// AlertService emails operators about conditions that survive retries:
// the secret store being bypassed for its fallback, or a webhook relay
// running out of attempts.
type AlertService struct {
	cfg    *configs.AlertConfig
	client *sendgrid.Client
	logger *logrus.Logger
}

func NewAlertService(cfg *configs.AlertConfig, logger *logrus.Logger) *AlertService {
	return &AlertService{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		logger: logger,
	}
}

// SecretFallbackEngaged implements ports.AlertService.
func (a *AlertService) SecretFallbackEngaged(ctx context.Context, secretName string, cause error) error {
	subject := "ProofBridge: secret store fallback engaged"
	body := fmt.Sprintf(
		"The secret store could not provide %q and the statically configured fallback secret is now in use.\n\nCause: %v\n\nRotate or restore the store-managed secret.",
		secretName, cause,
	)
	return a.send(subject, body)
}

// DeliveryExhausted implements ports.AlertService.
func (a *AlertService) DeliveryExhausted(ctx context.Context, d *delivery.Delivery) error {
	subject := fmt.Sprintf("ProofBridge: delivery exhausted for event %s", d.EventID)
	body := fmt.Sprintf(
		"Relaying event %s (%s, proof %s) to the downstream endpoint failed after %d attempts.\n\nLast error: %s",
		d.EventID, d.EventType, d.ProofID, d.Attempts, d.LastError,
	)
	return a.send(subject, body)
}

func (a *AlertService) send(subject, body string) error {
	from := mail.NewEmail(a.cfg.FromName, a.cfg.FromEmail)
	to := mail.NewEmail("", a.cfg.OperatorEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	response, err := a.client.Send(message)
	if err != nil {
		if a.logger != nil {
			a.logger.WithError(err).WithField("subject", subject).Error("failed to send alert email")
		}
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	if a.logger != nil {
		a.logger.WithFields(logrus.Fields{
			"subject":     subject,
			"status_code": response.StatusCode,
		}).Info("alert email sent")
	}
	return nil
}

var _ ports.AlertService = (*AlertService)(nil)
