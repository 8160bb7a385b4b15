package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/provia/proofbridge/internal/core/domain/proof"
	"github.com/provia/proofbridge/internal/core/ports"
)

// cacheSetSilently writes through to the cache, ignoring failures; the cache
// is an optimization, never a source of truth.
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok := c.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// ProofsService orchestrates the proofing-platform client: create proofs
// (resolving or creating the target collection), fetch proof details, list
// collections. Platform reads are memoized through the cache; collection
// loads are additionally coalesced so a burst of creates does one listing.
type ProofsService struct {
	platform    ports.ProofPlatform
	proofCache  ports.Cache
	collCache   ports.Cache
	proofTTL    time.Duration
	collTTL     time.Duration
	logger      *logrus.Logger
	collSingles singleflight.Group
}

func NewProofsService(platform ports.ProofPlatform, cache ports.Cache, logger *logrus.Logger) *ProofsService {
	var proofCache, collCache ports.Cache
	if cache != nil {
		proofCache = cache.Namespace("proofs")
		collCache = cache.Namespace("collections")
	}
	return &ProofsService{
		platform:   platform,
		proofCache: proofCache,
		collCache:  collCache,
		proofTTL:   3 * time.Minute,
		collTTL:    10 * time.Minute,
		logger:     logger,
	}
}

// CreateProof implements ports.ProofService. When a collection name is given,
// the collection is resolved against the (cached) listing and created on the
// platform if absent.
func (s *ProofsService) CreateProof(ctx context.Context, req *proof.CreateProofRequest) (*proof.Proof, error) {
	if req == nil || req.Name == "" || req.FileURL == "" {
		return nil, fmt.Errorf("proof name and file_url are required")
	}

	var collectionID string
	if req.CollectionName != "" {
		coll, err := s.resolveCollection(ctx, req.CollectionName)
		if err != nil {
			return nil, fmt.Errorf("resolve collection %q: %w", req.CollectionName, err)
		}
		collectionID = coll.ID
	}

	p, err := s.platform.CreateProof(ctx, req, collectionID)
	if err != nil {
		return nil, err
	}
	cacheSetSilently(s.proofCache, ctx, p.ID, p, s.proofTTL)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"proof_id": p.ID, "collection_id": collectionID}).Info("proof created")
	}
	return p, nil
}

// GetProof implements ports.ProofService with cache-aside memoization.
func (s *ProofsService) GetProof(ctx context.Context, id string) (*proof.Proof, error) {
	if v, ok := cacheGet[proof.Proof](s.proofCache, ctx, id); ok {
		return v, nil
	}
	p, err := s.platform.GetProof(ctx, id)
	if err != nil {
		return nil, err
	}
	cacheSetSilently(s.proofCache, ctx, id, p, s.proofTTL)
	return p, nil
}

// ListCollections implements ports.ProofService.
func (s *ProofsService) ListCollections(ctx context.Context) ([]*proof.Collection, error) {
	return s.loadCollections(ctx)
}

func (s *ProofsService) resolveCollection(ctx context.Context, name string) (*proof.Collection, error) {
	all, err := s.loadCollections(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}

	created, err := s.platform.CreateCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	// The cached listing is now stale.
	if s.collCache != nil {
		_ = s.collCache.Delete(ctx, "all")
	}
	if s.logger != nil {
		s.logger.WithField("collection", name).Info("collection created on platform")
	}
	return created, nil
}

func (s *ProofsService) loadCollections(ctx context.Context) ([]*proof.Collection, error) {
	if v, ok := cacheGet[[]*proof.Collection](s.collCache, ctx, "all"); ok {
		return *v, nil
	}
	res, err, _ := s.collSingles.Do("collections", func() (any, error) {
		if v, ok := cacheGet[[]*proof.Collection](s.collCache, ctx, "all"); ok {
			return *v, nil
		}
		all, err := s.platform.ListCollections(ctx)
		if err != nil {
			return nil, err
		}
		cacheSetSilently(s.collCache, ctx, "all", all, s.collTTL)
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	all, ok := res.([]*proof.Collection)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return all, nil
}
