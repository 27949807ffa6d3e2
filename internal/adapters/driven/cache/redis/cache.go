// Package redis implements the cache port on a Redis backend. Cache
// trouble is never an error for callers: an unreachable server just turns
// every lookup into a miss.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// scanBatch is the COUNT hint for pattern scans.
const scanBatch = 100

// Cache is a Redis-backed driven.Cache.
type Cache struct {
	client *goredis.Client
}

var _ driven.Cache = (*Cache)(nil)

// New creates a cache against the given address, e.g. "localhost:6379".
func New(addr string) *Cache {
	return &Cache{
		client: goredis.NewClient(&goredis.Options{Addr: addr}),
	}
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping reports backend reachability.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the value under key, treating every failure as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			logger.Debug("cache get %s failed: %v", key, err)
		}
		return nil, false
	}
	return val, true
}

// Set stores value under key. Failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Debug("cache set %s failed: %v", key, err)
	}
}

// Delete removes individual keys. Failures are logged and dropped.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Debug("cache delete failed: %v", err)
	}
}

// DeleteByPattern removes every key matching a glob pattern via SCAN, so
// large keyspaces are walked incrementally instead of blocking the server.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) int {
	var deleted int
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			logger.Debug("cache scan %s failed: %v", pattern, err)
			return deleted
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				logger.Debug("cache delete failed: %v", err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted
		}
	}
}
