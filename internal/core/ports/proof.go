package ports

import (
	"context"

	"github.com/provia/proofbridge/internal/core/domain/proof"
)

// ProofPlatform is the proofing-platform SDK surface this service consumes.
// Implementations talk to the external API; everything behind this interface
// is network glue with no local invariants.
type ProofPlatform interface {
	CreateProof(ctx context.Context, req *proof.CreateProofRequest, collectionID string) (*proof.Proof, error)
	GetProof(ctx context.Context, id string) (*proof.Proof, error)
	ListCollections(ctx context.Context) ([]*proof.Collection, error)
	CreateCollection(ctx context.Context, name string) (*proof.Collection, error)
}

// ProofService orchestrates proof creation and lookup, memoizing platform
// reads through the cache.
type ProofService interface {
	CreateProof(ctx context.Context, req *proof.CreateProofRequest) (*proof.Proof, error)
	GetProof(ctx context.Context, id string) (*proof.Proof, error)
	ListCollections(ctx context.Context) ([]*proof.Collection, error)
}
