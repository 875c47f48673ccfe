// Package cache provides a Redis-backed, singleflight-deduplicated cache
// for search results, keyed by a normalized query string. Grounded on
// internal/searcher/cache/cache.go's QueryCache (Get/Set/GetOrCompute/
// Invalidate/Stats shape, SHA-256 key hashing, singleflight group),
// generalized with a type parameter so the searcher facade's result type
// doesn't have to live in this package (avoiding an import cycle with
// internal/searcher).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/marian-search/marian/pkg/config"
	pkgredis "github.com/marian-search/marian/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "marian:search:"

// QueryCache wraps a Redis client with singleflight de-duplication and
// hit/miss counters, caching values of type T.
type QueryCache[T any] struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache backed by the given Redis client.
func New[T any](client *pkgredis.Client, cfg config.RedisConfig) *QueryCache[T] {
	return &QueryCache[T]{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get reads a cached value for key. Returns (zero, false) on miss or error.
func (c *QueryCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			c.misses.Add(1)
			return zero, false
		}
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return zero, false
	}
	var val T
	if err := json.Unmarshal([]byte(data), &val); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return val, true
}

// Set stores val under key with the configured TTL.
func (c *QueryCache[T]) Set(ctx context.Context, key string, val T) {
	data, err := json.Marshal(val)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns a cached value if available; otherwise invokes
// computeFn, caches the outcome, and returns it. The singleflight group
// prevents thundering-herd cache-miss storms on a popular query.
func (c *QueryCache[T]) GetOrCompute(ctx context.Context, key string, computeFn func() (T, error)) (T, bool, error) {
	if val, ok := c.Get(ctx, key); ok {
		return val, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if val, ok := c.Get(ctx, key); ok {
			return val, nil
		}
		v, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return val.(T), false, nil
}

// Invalidate flushes every cached search-result key.
func (c *QueryCache[T]) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// Stats returns the cumulative hit and miss counters.
func (c *QueryCache[T]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BuildKey produces a deterministic cache key from the query's already
// -normalized parts (raw query string, resolved and deduplicated
// searchProperty tags in request order, useHits). Tags are not sorted, so
// the same tags given in a different order produce a different key.
func BuildKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}
