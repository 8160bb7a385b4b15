package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/provia/proofbridge/configs"
	impl "github.com/provia/proofbridge/internal/application/services"
	"github.com/provia/proofbridge/internal/core/domain/delivery"
	"github.com/provia/proofbridge/internal/core/domain/proof"
	tmocks "github.com/provia/proofbridge/test/mocks"
)

func relayTestConfig() *configs.PowerAppsConfig {
	return &configs.PowerAppsConfig{
		MaxRetries:  3,
		RetryDelay:  time.Millisecond,
		RetryFactor: 2.0,
	}
}

func testEvent() *proof.WebhookEvent {
	return &proof.WebhookEvent{
		EventID:    "evt-1",
		Type:       proof.EventProofApproved,
		ProofID:    "proof-1",
		Status:     proof.StatusApproved,
		OccurredAt: time.Now().UTC(),
	}
}

func TestRelayDeliversFirstAttempt(t *testing.T) {
	endpoint := &tmocks.RelayEndpointMock{}
	repo := &tmocks.DeliveryRepositoryMock{}
	svc := impl.NewRelayService(endpoint, repo, nil, relayTestConfig(), nil)

	d, err := svc.Relay(context.Background(), testEvent())
	require.NoError(t, err)
	require.Equal(t, delivery.OutcomeDelivered, d.Outcome)
	require.Equal(t, 1, d.Attempts)
	require.Equal(t, 1, endpoint.DeliverCalls)
	require.Len(t, repo.Created, 1)
	require.Len(t, repo.Updated, 1)
	require.Equal(t, delivery.OutcomeDelivered, repo.Updated[0].Outcome)
	require.NotNil(t, d.CompletedAt)
}

func TestRelayRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	endpoint := &tmocks.RelayEndpointMock{DeliverFn: func(ctx context.Context, event *proof.WebhookEvent) error {
		attempts++
		if attempts < 3 {
			return errors.New("downstream unavailable")
		}
		return nil
	}}
	repo := &tmocks.DeliveryRepositoryMock{}
	svc := impl.NewRelayService(endpoint, repo, nil, relayTestConfig(), nil)

	d, err := svc.Relay(context.Background(), testEvent())
	require.NoError(t, err)
	require.Equal(t, delivery.OutcomeDelivered, d.Outcome)
	require.Equal(t, 3, d.Attempts)
}

func TestRelayExhaustedRaisesAlert(t *testing.T) {
	endpoint := &tmocks.RelayEndpointMock{DeliverFn: func(ctx context.Context, event *proof.WebhookEvent) error {
		return errors.New("downstream unavailable")
	}}
	repo := &tmocks.DeliveryRepositoryMock{}
	alerts := &tmocks.AlertServiceMock{}
	svc := impl.NewRelayService(endpoint, repo, alerts, relayTestConfig(), nil)

	d, err := svc.Relay(context.Background(), testEvent())
	require.Error(t, err)
	require.Equal(t, delivery.OutcomeExhausted, d.Outcome)
	require.Equal(t, 3, d.Attempts)
	require.NotEmpty(t, d.LastError)
	require.Equal(t, 1, alerts.DeliveryExhaustedCalls)
	require.Len(t, repo.Updated, 1)
	require.Equal(t, delivery.OutcomeExhausted, repo.Updated[0].Outcome)
}

func TestRelayProceedsWhenBookkeepingFails(t *testing.T) {
	endpoint := &tmocks.RelayEndpointMock{}
	repo := &tmocks.DeliveryRepositoryMock{
		CreateFn: func(ctx context.Context, d *delivery.Delivery) error { return errors.New("db down") },
		UpdateFn: func(ctx context.Context, d *delivery.Delivery) error { return errors.New("db down") },
	}
	svc := impl.NewRelayService(endpoint, repo, nil, relayTestConfig(), nil)

	d, err := svc.Relay(context.Background(), testEvent())
	require.NoError(t, err)
	require.Equal(t, delivery.OutcomeDelivered, d.Outcome)
	require.Equal(t, 1, endpoint.DeliverCalls)
}
