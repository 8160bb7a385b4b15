package mocks

import (
	"context"
	"fmt"

	"github.com/provia/proofbridge/internal/core/domain/auth"
	"github.com/provia/proofbridge/internal/core/domain/delivery"
	"github.com/provia/proofbridge/internal/core/domain/proof"
)

// SignatureServiceMock is a lightweight mock for SignatureService
type SignatureServiceMock struct {
	SignFn              func(secret, timestamp string) string
	VerifyTimestampFn   func(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error)
	VerifyWebhookBodyFn func(body []byte, signature string) bool

	VerifyTimestampCalls   int
	VerifyWebhookBodyCalls int
}

func (m *SignatureServiceMock) Sign(secret, timestamp string) string {
	if m.SignFn != nil {
		return m.SignFn(secret, timestamp)
	}
	return ""
}

func (m *SignatureServiceMock) VerifyTimestamp(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error) {
	m.VerifyTimestampCalls++
	if m.VerifyTimestampFn != nil {
		return m.VerifyTimestampFn(ctx, timestamp, signature)
	}
	return &auth.VerificationResult{IsValid: false, Reason: auth.ReasonSignatureMismatch}, nil
}

func (m *SignatureServiceMock) VerifyWebhookBody(body []byte, signature string) bool {
	m.VerifyWebhookBodyCalls++
	if m.VerifyWebhookBodyFn != nil {
		return m.VerifyWebhookBodyFn(body, signature)
	}
	return false
}

// SecretProviderMock is a lightweight mock for SecretProvider
type SecretProviderMock struct {
	GetSecretFn     func(ctx context.Context, name string) (string, error)
	InvalidateFn    func()
	GetSecretCalls  int
	InvalidateCalls int
}

func (m *SecretProviderMock) GetSecret(ctx context.Context, name string) (string, error) {
	m.GetSecretCalls++
	if m.GetSecretFn != nil {
		return m.GetSecretFn(ctx, name)
	}
	return "", fmt.Errorf("no secret configured")
}

func (m *SecretProviderMock) Invalidate() {
	m.InvalidateCalls++
	if m.InvalidateFn != nil {
		m.InvalidateFn()
	}
}

// ProofPlatformMock is a lightweight mock for the platform client
type ProofPlatformMock struct {
	CreateProofFn      func(ctx context.Context, req *proof.CreateProofRequest, collectionID string) (*proof.Proof, error)
	GetProofFn         func(ctx context.Context, id string) (*proof.Proof, error)
	ListCollectionsFn  func(ctx context.Context) ([]*proof.Collection, error)
	CreateCollectionFn func(ctx context.Context, name string) (*proof.Collection, error)

	CreateProofCalls      int
	GetProofCalls         int
	ListCollectionsCalls  int
	CreateCollectionCalls int
}

func (m *ProofPlatformMock) CreateProof(ctx context.Context, req *proof.CreateProofRequest, collectionID string) (*proof.Proof, error) {
	m.CreateProofCalls++
	if m.CreateProofFn != nil {
		return m.CreateProofFn(ctx, req, collectionID)
	}
	return &proof.Proof{ID: "proof-1", Name: req.Name, CollectionID: collectionID}, nil
}

func (m *ProofPlatformMock) GetProof(ctx context.Context, id string) (*proof.Proof, error) {
	m.GetProofCalls++
	if m.GetProofFn != nil {
		return m.GetProofFn(ctx, id)
	}
	return &proof.Proof{ID: id}, nil
}

func (m *ProofPlatformMock) ListCollections(ctx context.Context) ([]*proof.Collection, error) {
	m.ListCollectionsCalls++
	if m.ListCollectionsFn != nil {
		return m.ListCollectionsFn(ctx)
	}
	return nil, nil
}

func (m *ProofPlatformMock) CreateCollection(ctx context.Context, name string) (*proof.Collection, error) {
	m.CreateCollectionCalls++
	if m.CreateCollectionFn != nil {
		return m.CreateCollectionFn(ctx, name)
	}
	return &proof.Collection{ID: "coll-1", Name: name}, nil
}

// RelayEndpointMock is a lightweight mock for the downstream endpoint
type RelayEndpointMock struct {
	DeliverFn    func(ctx context.Context, event *proof.WebhookEvent) error
	DeliverCalls int
}

func (m *RelayEndpointMock) Deliver(ctx context.Context, event *proof.WebhookEvent) error {
	m.DeliverCalls++
	if m.DeliverFn != nil {
		return m.DeliverFn(ctx, event)
	}
	return nil
}

// DeliveryRepositoryMock is a lightweight mock for DeliveryRepository
type DeliveryRepositoryMock struct {
	CreateFn func(ctx context.Context, d *delivery.Delivery) error
	UpdateFn func(ctx context.Context, d *delivery.Delivery) error
	ListFn   func(ctx context.Context, filter *delivery.Filter) ([]*delivery.Delivery, error)

	Created []*delivery.Delivery
	Updated []*delivery.Delivery
}

func (m *DeliveryRepositoryMock) Create(ctx context.Context, d *delivery.Delivery) error {
	copied := *d
	m.Created = append(m.Created, &copied)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *DeliveryRepositoryMock) Update(ctx context.Context, d *delivery.Delivery) error {
	copied := *d
	m.Updated = append(m.Updated, &copied)
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, d)
	}
	return nil
}

func (m *DeliveryRepositoryMock) List(ctx context.Context, filter *delivery.Filter) ([]*delivery.Delivery, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, nil
}

// AlertServiceMock records alert invocations
type AlertServiceMock struct {
	SecretFallbackEngagedFn func(ctx context.Context, secretName string, cause error) error
	DeliveryExhaustedFn     func(ctx context.Context, d *delivery.Delivery) error

	SecretFallbackCalls    int
	DeliveryExhaustedCalls int
}

func (m *AlertServiceMock) SecretFallbackEngaged(ctx context.Context, secretName string, cause error) error {
	m.SecretFallbackCalls++
	if m.SecretFallbackEngagedFn != nil {
		return m.SecretFallbackEngagedFn(ctx, secretName, cause)
	}
	return nil
}

func (m *AlertServiceMock) DeliveryExhausted(ctx context.Context, d *delivery.Delivery) error {
	m.DeliveryExhaustedCalls++
	if m.DeliveryExhaustedFn != nil {
		return m.DeliveryExhaustedFn(ctx, d)
	}
	return nil
}
