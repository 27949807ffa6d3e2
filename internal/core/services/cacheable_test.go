package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := cacheKey(cachePrefixSearch, "search", "query", 5)
		b := cacheKey(cachePrefixSearch, "search", "query", 5)
		assert.Equal(t, a, b)
	})

	t.Run("arguments participate", func(t *testing.T) {
		a := cacheKey(cachePrefixSearch, "search", "query", 5)
		b := cacheKey(cachePrefixSearch, "search", "query", 6)
		assert.NotEqual(t, a, b)
	})

	t.Run("namespaced", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(cacheKey(cachePrefixStats, "stats"), cachePrefixStats))
	})
}

func TestCached(t *testing.T) {
	ctx := context.Background()

	t.Run("miss fetches and stores", func(t *testing.T) {
		cache := newFakeCache()
		calls := 0

		v, err := cached(ctx, cache, "analyzer:search:k1", TTLSearch, func() (int, error) {
			calls++
			return 42, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 42, v)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, cache.sets)
	})

	t.Run("hit skips fetch", func(t *testing.T) {
		cache := newFakeCache()
		calls := 0
		fetch := func() (int, error) {
			calls++
			return 42, nil
		}

		_, err := cached(ctx, cache, "k", TTLSearch, fetch)
		require.NoError(t, err)
		v, err := cached(ctx, cache, "k", TTLSearch, fetch)
		require.NoError(t, err)

		assert.Equal(t, 42, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("fetch error is not cached", func(t *testing.T) {
		cache := newFakeCache()
		boom := errors.New("boom")

		_, err := cached(ctx, cache, "k", TTLSearch, func() (int, error) {
			return 0, boom
		})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, cache.sets)
	})

	t.Run("nil cache always fetches", func(t *testing.T) {
		calls := 0
		fetch := func() (int, error) {
			calls++
			return 7, nil
		}

		for i := 0; i < 3; i++ {
			v, err := cached[int](ctx, nil, "k", TTLSearch, fetch)
			require.NoError(t, err)
			assert.Equal(t, 7, v)
		}
		assert.Equal(t, 3, calls)
	})

	t.Run("undecodable entry refetches", func(t *testing.T) {
		cache := newFakeCache()
		cache.entries["k"] = []byte("{corrupt")

		v, err := cached(ctx, cache, "k", TTLSearch, func() (int, error) {
			return 9, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 9, v)
	})
}

func TestInvalidateQueryCaches(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	cache.Set(ctx, cachePrefixSearch+"abc", []byte("1"), TTLSearch)
	cache.Set(ctx, cachePrefixStats+"def", []byte("2"), TTLStats)
	cache.Set(ctx, "unrelated:key", []byte("3"), TTLDefault)

	invalidateQueryCaches(ctx, cache)

	_, ok := cache.Get(ctx, cachePrefixSearch+"abc")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, cachePrefixStats+"def")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "unrelated:key")
	assert.True(t, ok)

	// Nil cache is a no-op, not a panic.
	invalidateQueryCaches(ctx, nil)
}
