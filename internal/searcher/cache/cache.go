// Package cache is a redis-backed cache for search responses. Identical
// queries within the TTL are served without touching the engine, and
// concurrent misses for the same key are collapsed to a single computation.
// The whole cache is invalidated after an index rebuild.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/paylist-tw/docsearch/internal/searcher"
	"github.com/paylist-tw/docsearch/pkg/metrics"
	pkgredis "github.com/paylist-tw/docsearch/pkg/redis"
)

const keyPrefix = "docsearch:query:"

// Response is the cached unit: one full search answer.
type Response struct {
	Results []searcher.Result `json:"results"`
	Total   int               `json:"total"`
}

// QueryCache caches search responses in redis.
type QueryCache struct {
	client *pkgredis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// New creates a QueryCache with the given entry TTL.
func New(client *pkgredis.Client, ttl time.Duration) *QueryCache {
	return &QueryCache{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached response for a query, if present. Redis failures
// count as misses; the engine remains the source of truth.
func (c *QueryCache) Get(ctx context.Context, query string, limit int) (*Response, bool) {
	key := c.buildKey(query, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	return &resp, true
}

// Set stores a response. Failures are logged and swallowed.
func (c *QueryCache) Set(ctx context.Context, query string, limit int, resp *Response) {
	key := c.buildKey(query, limit)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response or computes and stores it,
// deduplicating concurrent computations of the same key. The boolean
// reports whether the response came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() (*Response, error),
) (*Response, bool, error) {
	if resp, ok := c.Get(ctx, query, limit); ok {
		return resp, true, nil
	}
	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if resp, ok := c.Get(ctx, query, limit); ok {
			return resp, nil
		}
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Response), false, nil
}

// Invalidate drops every cached response. Called after a new snapshot is
// installed.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) buildKey(query string, limit int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	raw := fmt.Sprintf("%s:limit=%d", normalized, limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
