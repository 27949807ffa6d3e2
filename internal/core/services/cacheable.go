package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/ports/driven"
	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/logger"
)

// Cache TTLs per operation class. Search results tolerate staleness since
// the corpus only changes on ingest; stats are cheap to refresh, so they
// expire faster.
const (
	TTLSearch  = 30 * time.Minute
	TTLStats   = 5 * time.Minute
	TTLDefault = time.Hour
)

// Cache key namespaces. Invalidation after ingest deletes by prefix, so
// every cacheable operation must live under one of these.
const (
	cachePrefixSearch = "analyzer:search:"
	cachePrefixStats  = "analyzer:stats:"
)

// cacheKey derives a stable key from an operation name and its arguments.
// Arguments are serialized to JSON and hashed, so any comparable or
// marshalable argument participates in the identity.
func cacheKey(prefix, op string, args ...any) string {
	payload, err := json.Marshal(struct {
		Op   string `json:"op"`
		Args []any  `json:"args"`
	}{Op: op, Args: args})
	if err != nil {
		// Unmarshalable arguments fall back to the bare op name, which
		// only widens the key, never corrupts it.
		payload = []byte(op)
	}
	sum := md5.Sum(payload)
	return prefix + hex.EncodeToString(sum[:])
}

// cached is a read-through helper: return the cached value under key, or
// compute it with fetch and store the result. A nil cache and a cache miss
// behave identically, so callers need no branching for degraded mode.
func cached[T any](ctx context.Context, c driven.Cache, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if c != nil {
		if raw, ok := c.Get(ctx, key); ok {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				logger.Debug("cache hit: %s", key)
				return v, nil
			}
			logger.Warn("cache entry undecodable, refetching: %s", key)
		}
	}

	v, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}

	if c != nil {
		if raw, err := json.Marshal(v); err == nil {
			c.Set(ctx, key, raw, ttl)
		}
	}

	return v, nil
}

// invalidateQueryCaches drops every cached search and stats entry. Called
// after ingestion so reads never serve pre-import results for a full TTL.
func invalidateQueryCaches(ctx context.Context, c driven.Cache) {
	if c == nil {
		return
	}
	n := c.DeleteByPattern(ctx, cachePrefixSearch+"*")
	n += c.DeleteByPattern(ctx, cachePrefixStats+"*")
	if n > 0 {
		logger.Debug("invalidated %d cached entries", n)
	}
}
