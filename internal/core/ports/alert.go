package ports

import (
	"context"

	"github.com/provia/proofbridge/internal/core/domain/delivery"
)

// AlertService notifies operators about conditions that need human attention.
// Implementations must never block request handling on delivery failures.
type AlertService interface {
	// SecretFallbackEngaged fires when the durable secret store was bypassed
	// in favor of the statically configured fallback secret.
	SecretFallbackEngaged(ctx context.Context, secretName string, cause error) error
	// DeliveryExhausted fires when a webhook relay ran out of retries.
	DeliveryExhausted(ctx context.Context, d *delivery.Delivery) error
}
