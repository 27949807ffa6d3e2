package driven

import (
	"context"
	"time"
)

// Cache abstracts the read-through result cache. Implementations degrade
// rather than fail: when the backend is unreachable every lookup is a
// miss and writes are dropped, so callers never need an error path for an
// optional speedup.
type Cache interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes individual keys.
	Delete(ctx context.Context, keys ...string)

	// DeleteByPattern removes every key matching a glob-style pattern and
	// returns how many were removed.
	DeleteByPattern(ctx context.Context, pattern string) int

	// Ping reports whether the backend is currently reachable.
	Ping(ctx context.Context) error
}
