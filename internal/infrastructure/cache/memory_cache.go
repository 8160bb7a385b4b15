package cache

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/ports"
)

// approximate per-entry bookkeeping cost, counted on top of key and value bytes
const entryOverheadBytes = 120

type entry struct {
	value     []byte
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry is past its TTL. A TTL of zero or below
// means the entry never expires.
func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) > e.ttl
}

// MemoryCache is an in-process TTL cache with capacity-bounded eviction.
// Expired entries are dropped lazily on read and by a background sweep;
// when the entry count reaches MaxEntries, the oldest ~10% of entries (by
// creation time) are evicted before a new entry is admitted, which bounds
// memory regardless of sweep timing.
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	memBytes int64

	maxEntries    int
	sweepInterval time.Duration
	logger        *logrus.Logger

	hits   atomic.Uint64
	misses atomic.Uint64

	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

type Options struct {
	MaxEntries    int
	SweepInterval time.Duration
}

// NewMemoryCache creates a cache. Call Start to run the background sweeper
// and Stop on shutdown.
func NewMemoryCache(opts Options, logger *logrus.Logger) *MemoryCache {
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	sweep := opts.SweepInterval
	if sweep <= 0 {
		sweep = time.Minute
	}
	return &MemoryCache{
		entries:       make(map[string]*entry),
		maxEntries:    maxEntries,
		sweepInterval: sweep,
		logger:        logger,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the periodic sweep goroutine.
func (c *MemoryCache) Start() {
	go func() {
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stopCh:
				return
			case <-ticker.C:
				removed := c.sweepExpired()
				if removed > 0 && c.logger != nil {
					c.logger.WithField("removed", removed).Debug("cache sweep removed expired entries")
				}
			}
		}
	}()
}

// Stop terminates the sweeper. Safe to call more than once.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Set implements ports.Cache. Re-setting an existing key resets its age to now.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	e := &entry{value: value, createdAt: c.now(), ttl: ttl}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.memBytes -= entryCost(key, old.value)
	} else if len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = e
	c.memBytes += entryCost(key, value)
	return true
}

// Get implements ports.Cache. A stale entry is removed the moment it is
// observed, before the miss is reported.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	if e.expired(now) {
		c.removeEntry(key, e)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Delete implements ports.Cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	delete(c.entries, key)
	c.memBytes -= entryCost(key, e.value)
	return true
}

// Exists implements ports.Cache with the same freshness check as Get.
func (c *MemoryCache) Exists(ctx context.Context, key string) bool {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false
	}
	if e.expired(now) {
		c.removeEntry(key, e)
		return false
	}
	return true
}

// Increment implements ports.Cache. The read and the write take the lock
// separately, so two concurrent callers can lose an update; this mirrors the
// documented single-writer assumption and is not a bug to fix here.
func (c *MemoryCache) Increment(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, bool) {
	var current int64
	if b, ok := c.Get(ctx, key); ok {
		parsed, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			if c.logger != nil {
				c.logger.WithField("key", key).Warn("cache increment on non-numeric value")
			}
			return 0, false
		}
		current = parsed
	}
	next := current + amount
	if !c.Set(ctx, key, []byte(strconv.FormatInt(next, 10)), ttl) {
		return 0, false
	}
	return next, true
}

// Stats implements ports.Cache.
func (c *MemoryCache) Stats(ctx context.Context) ports.CacheStats {
	c.mu.RLock()
	keyCount := len(c.entries)
	memBytes := c.memBytes
	c.mu.RUnlock()
	return ports.CacheStats{
		Hits:              c.hits.Load(),
		Misses:            c.misses.Load(),
		KeyCount:          keyCount,
		ApproxMemoryBytes: memBytes,
	}
}

// Namespace implements ports.Cache.
func (c *MemoryCache) Namespace(prefix string) ports.Cache {
	return &namespacedCache{inner: c, prefix: prefix}
}

// removeEntry deletes key only if it still maps to the observed entry, so a
// concurrent re-set is not clobbered.
func (c *MemoryCache) removeEntry(key string, observed *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[key]; ok && cur == observed {
		delete(c.entries, key)
		c.memBytes -= entryCost(key, cur.value)
	}
}

// evictOldestLocked removes the oldest ~10% of entries by creation time.
// Entries without a TTL are not exempt; capacity pressure outranks pinning.
func (c *MemoryCache) evictOldestLocked() {
	target := c.maxEntries / 10
	if target < 1 {
		target = 1
	}

	type aged struct {
		key       string
		createdAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, createdAt: e.createdAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].createdAt.Before(all[j].createdAt) })

	if target > len(all) {
		target = len(all)
	}
	for _, a := range all[:target] {
		if e, ok := c.entries[a.key]; ok {
			delete(c.entries, a.key)
			c.memBytes -= entryCost(a.key, e.value)
		}
	}
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{"evicted": target, "max_entries": c.maxEntries}).Debug("cache capacity eviction")
	}
}

// sweepExpired removes every expired entry and returns how many were dropped.
func (c *MemoryCache) sweepExpired() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			c.memBytes -= entryCost(k, e.value)
			removed++
		}
	}
	return removed
}

func entryCost(key string, value []byte) int64 {
	return int64(len(key) + len(value) + entryOverheadBytes)
}

// namespacedCache prefixes keys before delegating. Stats remain global to the
// underlying cache.
type namespacedCache struct {
	inner  ports.Cache
	prefix string
}

func (n *namespacedCache) key(k string) string { return n.prefix + ":" + k }

func (n *namespacedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	return n.inner.Set(ctx, n.key(key), value, ttl)
}

func (n *namespacedCache) Get(ctx context.Context, key string) ([]byte, bool) {
	return n.inner.Get(ctx, n.key(key))
}

func (n *namespacedCache) Delete(ctx context.Context, key string) bool {
	return n.inner.Delete(ctx, n.key(key))
}

func (n *namespacedCache) Exists(ctx context.Context, key string) bool {
	return n.inner.Exists(ctx, n.key(key))
}

func (n *namespacedCache) Increment(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, bool) {
	return n.inner.Increment(ctx, n.key(key), amount, ttl)
}

func (n *namespacedCache) Stats(ctx context.Context) ports.CacheStats {
	return n.inner.Stats(ctx)
}

func (n *namespacedCache) Namespace(prefix string) ports.Cache {
	return &namespacedCache{inner: n.inner, prefix: n.prefix + ":" + prefix}
}
