package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	impl "github.com/provia/proofbridge/internal/application/services"
	"github.com/provia/proofbridge/internal/core/domain/proof"
	memcache "github.com/provia/proofbridge/internal/infrastructure/cache"
	tmocks "github.com/provia/proofbridge/test/mocks"
)

func newTestCache(t *testing.T) *memcache.MemoryCache {
	t.Helper()
	return memcache.NewMemoryCache(memcache.Options{MaxEntries: 100, SweepInterval: time.Hour}, nil)
}

func TestGetProofMemoizesPlatformRead(t *testing.T) {
	platform := &tmocks.ProofPlatformMock{GetProofFn: func(ctx context.Context, id string) (*proof.Proof, error) {
		return &proof.Proof{ID: id, Name: "catalog"}, nil
	}}
	svc := impl.NewProofsService(platform, newTestCache(t), nil)

	for i := 0; i < 3; i++ {
		p, err := svc.GetProof(context.Background(), "p-1")
		require.NoError(t, err)
		require.Equal(t, "catalog", p.Name)
	}
	require.Equal(t, 1, platform.GetProofCalls)
}

func TestListCollectionsMemoized(t *testing.T) {
	platform := &tmocks.ProofPlatformMock{ListCollectionsFn: func(ctx context.Context) ([]*proof.Collection, error) {
		return []*proof.Collection{{ID: "c1", Name: "Spring"}}, nil
	}}
	svc := impl.NewProofsService(platform, newTestCache(t), nil)

	for i := 0; i < 3; i++ {
		all, err := svc.ListCollections(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 1)
	}
	require.Equal(t, 1, platform.ListCollectionsCalls)
}

func TestCreateProofResolvesExistingCollection(t *testing.T) {
	platform := &tmocks.ProofPlatformMock{
		ListCollectionsFn: func(ctx context.Context) ([]*proof.Collection, error) {
			return []*proof.Collection{{ID: "c1", Name: "Spring"}}, nil
		},
		CreateProofFn: func(ctx context.Context, req *proof.CreateProofRequest, collectionID string) (*proof.Proof, error) {
			return &proof.Proof{ID: "p-1", Name: req.Name, CollectionID: collectionID}, nil
		},
	}
	svc := impl.NewProofsService(platform, newTestCache(t), nil)

	p, err := svc.CreateProof(context.Background(), &proof.CreateProofRequest{
		Name:           "banner",
		FileURL:        "https://files.example.com/banner.pdf",
		CollectionName: "spring", // matched case-insensitively
	})
	require.NoError(t, err)
	require.Equal(t, "c1", p.CollectionID)
	require.Equal(t, 0, platform.CreateCollectionCalls)
}

func TestCreateProofCreatesMissingCollection(t *testing.T) {
	platform := &tmocks.ProofPlatformMock{
		ListCollectionsFn: func(ctx context.Context) ([]*proof.Collection, error) { return nil, nil },
		CreateCollectionFn: func(ctx context.Context, name string) (*proof.Collection, error) {
			return &proof.Collection{ID: "c-new", Name: name}, nil
		},
		CreateProofFn: func(ctx context.Context, req *proof.CreateProofRequest, collectionID string) (*proof.Proof, error) {
			return &proof.Proof{ID: "p-1", Name: req.Name, CollectionID: collectionID}, nil
		},
	}
	svc := impl.NewProofsService(platform, newTestCache(t), nil)

	p, err := svc.CreateProof(context.Background(), &proof.CreateProofRequest{
		Name:           "banner",
		FileURL:        "https://files.example.com/banner.pdf",
		CollectionName: "Autumn",
	})
	require.NoError(t, err)
	require.Equal(t, "c-new", p.CollectionID)
	require.Equal(t, 1, platform.CreateCollectionCalls)
}

func TestCreateProofValidatesInput(t *testing.T) {
	svc := impl.NewProofsService(&tmocks.ProofPlatformMock{}, nil, nil)

	_, err := svc.CreateProof(context.Background(), &proof.CreateProofRequest{Name: "no file"})
	require.Error(t, err)
	_, err = svc.CreateProof(context.Background(), nil)
	require.Error(t, err)
}

func TestGetProofSurfacesPlatformError(t *testing.T) {
	platform := &tmocks.ProofPlatformMock{GetProofFn: func(ctx context.Context, id string) (*proof.Proof, error) {
		return nil, errors.New("platform unavailable")
	}}
	svc := impl.NewProofsService(platform, newTestCache(t), nil)

	_, err := svc.GetProof(context.Background(), "p-1")
	require.Error(t, err)
}
