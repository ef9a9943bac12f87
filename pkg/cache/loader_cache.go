// Package cache provides a generic loader cache combining a size-bounded, optionally expiring LRU
// with singleflight to coalesce concurrent loads for the same key.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidSize is returned by NewLoaderCache when maxEntries is not positive.
var ErrInvalidSize = errors.New("cache: max entries must be positive")

// LoaderCache loads values on miss via a callback. A burst of concurrent misses for one key runs a single
// load and every caller shares its result. Failed loads are not cached.
// Keys are converted to strings via keyToString for the LRU and singleflight.
type LoaderCache[K comparable, V any] struct {
	lru         *expirable.LRU[string, V]
	group       singleflight.Group
	keyToString func(K) string
}

// NewLoaderCache creates a loader cache holding at most maxEntries values. Entries older than ttl are
// evicted; ttl <= 0 keeps them until they fall out of the LRU.
func NewLoaderCache[K comparable, V any](maxEntries int, ttl time.Duration, keyToString func(K) string) (*LoaderCache[K, V], error) {
	if maxEntries <= 0 {
		return nil, ErrInvalidSize
	}

	return &LoaderCache[K, V]{
		lru:         expirable.NewLRU[string, V](maxEntries, nil, ttl),
		keyToString: keyToString,
	}, nil
}

// Get returns the value for key, loading it via load on cache miss.
func (c *LoaderCache[K, V]) Get(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	v, _, err := c.GetWithStats(ctx, key, load)

	return v, err
}

// GetWithStats is like Get but also reports whether the value came from the cache (hit) or was loaded (miss),
// so callers can record metrics without the cache knowing about them.
//
// The shared load runs detached from any single caller's cancellation, so one caller giving up does not fail
// the others waiting on the same key. Each caller still returns ctx.Err() as soon as its own ctx is done.
func (c *LoaderCache[K, V]) GetWithStats(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, bool, error) {
	var zero V

	keyStr := c.keyToString(key)
	if v, ok := c.lru.Get(keyStr); ok {
		return v, true, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	results := c.group.DoChan(keyStr, func() (any, error) {
		loaded, loadErr := load(loadCtx, key)
		if loadErr != nil {
			return nil, loadErr
		}

		c.lru.Add(keyStr, loaded)

		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return zero, false, res.Err
		}

		return res.Val.(V), false, nil //nolint:forcetypeassert // only V is stored by the loader above
	}
}

// Len returns the number of entries in the cache, including ones that expired but were not yet evicted.
func (c *LoaderCache[K, V]) Len() int {
	return c.lru.Len()
}
