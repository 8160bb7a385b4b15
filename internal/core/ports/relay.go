package ports

import (
	"context"

	"github.com/provia/proofbridge/internal/core/domain/delivery"
	"github.com/provia/proofbridge/internal/core/domain/proof"
)

// RelayEndpoint posts one event to the downstream workflow endpoint. A nil
// error means the endpoint acknowledged the event.
type RelayEndpoint interface {
	Deliver(ctx context.Context, event *proof.WebhookEvent) error
}

// RelayService forwards platform webhook events downstream with retries and
// records the outcome of each delivery chain.
type RelayService interface {
	Relay(ctx context.Context, event *proof.WebhookEvent) (*delivery.Delivery, error)
}

// DeliveryRepository persists relay delivery records.
type DeliveryRepository interface {
	Create(ctx context.Context, d *delivery.Delivery) error
	Update(ctx context.Context, d *delivery.Delivery) error
	List(ctx context.Context, filter *delivery.Filter) ([]*delivery.Delivery, error)
}
