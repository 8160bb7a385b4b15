package redis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/ports"
)

// counters are shared across namespace views of the same cache.
type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

// RedisCache implements ports.Cache on a Redis backend, for deployments that
// want verification results and memoized lookups shared across replicas.
// Capacity eviction and sweeping are Redis's responsibility (maxmemory +
// keyspace expiry), so only the contract surface is implemented here.
type RedisCache struct {
	r      redis.Cmdable
	prefix string
	logger *logrus.Logger
	stats  *counters
}

// NewRedisCache creates a Redis-backed cache with an optional key prefix.
func NewRedisCache(r redis.Cmdable, prefix string, logger *logrus.Logger) *RedisCache {
	return &RedisCache{r: r, prefix: prefix, logger: logger, stats: &counters{}}
}

func (c *RedisCache) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Set implements ports.Cache. Redis treats a TTL of zero as "no expiry",
// matching the contract.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.r.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("key", key).Warn("redis cache set failed")
		}
		return false
	}
	return true
}

// Get implements ports.Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.r.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		c.stats.misses.Add(1)
		return nil, false
	}
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("key", key).Warn("redis cache get failed")
		}
		c.stats.misses.Add(1)
		return nil, false
	}
	c.stats.hits.Add(1)
	return val, true
}

// Delete implements ports.Cache.
func (c *RedisCache) Delete(ctx context.Context, key string) bool {
	n, err := c.r.Del(ctx, c.key(key)).Result()
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("key", key).Warn("redis cache delete failed")
		}
		return false
	}
	return n > 0
}

// Exists implements ports.Cache.
func (c *RedisCache) Exists(ctx context.Context, key string) bool {
	n, err := c.r.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// Increment implements ports.Cache via INCRBY, which is atomic server-side;
// the in-memory backend's weaker guarantee is the documented floor, not a cap.
func (c *RedisCache) Increment(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, bool) {
	ns := c.key(key)
	n, err := c.r.IncrBy(ctx, ns, amount).Result()
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).WithField("key", key).Warn("redis cache increment failed")
		}
		return 0, false
	}
	if ttl > 0 {
		_ = c.r.Expire(ctx, ns, ttl).Err()
	}
	return n, true
}

// Stats implements ports.Cache. Key count and memory are best-effort server
// figures; hits and misses are tracked per process.
func (c *RedisCache) Stats(ctx context.Context) ports.CacheStats {
	s := ports.CacheStats{
		Hits:   c.stats.hits.Load(),
		Misses: c.stats.misses.Load(),
	}
	if n, err := c.r.DBSize(ctx).Result(); err == nil {
		s.KeyCount = int(n)
	}
	return s
}

// Namespace implements ports.Cache, sharing hit/miss counters with the parent.
func (c *RedisCache) Namespace(prefix string) ports.Cache {
	return &RedisCache{r: c.r, prefix: c.key(prefix), logger: c.logger, stats: c.stats}
}
