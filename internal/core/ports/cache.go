package ports

import (
	"context"
	"time"
)

// CacheStats is a point-in-time snapshot of cache accounting.
type CacheStats struct {
	Hits              uint64 `json:"hits"`
	Misses            uint64 `json:"misses"`
	KeyCount          int    `json:"key_count"`
	ApproxMemoryBytes int64  `json:"approx_memory_bytes"`
}

// Cache defines the key-value cache contract used to memoize expensive
// lookups and verification results. Implementations must degrade gracefully:
// Set reports failure as false instead of surfacing an error, so callers can
// always fall through to the primary source.
//
// A ttl of zero or below means the entry never expires. Namespace returns a
// view whose keys are partitioned from the parent's; a key written in one
// namespace is never visible in another.
type Cache interface {
	// Set stores value for key, timestamped now. Re-setting a key resets its age.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	// Get returns the value if present and unexpired. ok=false counts as a miss.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Delete removes the key, reporting whether it was present.
	Delete(ctx context.Context, key string) bool
	// Exists applies the same freshness check as Get without returning the value.
	Exists(ctx context.Context, key string) bool
	// Increment performs a read-modify-write on a numeric value. It is not
	// atomic across concurrent callers; callers needing an exact counter must
	// serialize externally.
	Increment(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, bool)
	// Stats returns hit/miss counters and size accounting.
	Stats(ctx context.Context) CacheStats
	// Namespace derives a cache view with a key prefix.
	Namespace(prefix string) Cache
}
