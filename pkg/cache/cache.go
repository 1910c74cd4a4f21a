// Package cache stores computed layouts and rendered artifacts.
//
// Layout is deterministic, so a layout is fully identified by the graph it was
// computed from, the direction, and the layout constants. [Keyer] turns those
// inputs into stable keys; a [Cache] maps keys to serialized bytes.
//
// Three backends are provided:
//   - [FileCache] for the CLI, under the user cache directory
//   - [RedisCache] for the HTTP server, shared across instances
//   - [NullCache] when caching is disabled
//
// Cached entries are derived data and may be dropped at any time.
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/branchview/pkg/observability"
)

// KeyTypeDisabled is the key type reported to the cache hooks for lookups
// that hit a disabled cache.
const KeyTypeDisabled = "disabled"

// Cache is a byte-oriented key/value store with optional expiry.
// A miss is reported as found == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache stores nothing. Every lookup is a miss, reported to the cache
// hooks under [KeyTypeDisabled] so that runs with caching turned off remain
// visible in metrics.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

// NewNullCache returns the cache used when caching is disabled.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	observability.Cache().OnCacheMiss(ctx, KeyTypeDisabled)
	return nil, false, nil
}

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

// Disabled reports whether c is a [NullCache]. Callers that emit their own
// cache hooks skip them for a disabled cache, which reports its own misses.
func Disabled(c Cache) bool {
	_, ok := c.(*NullCache)
	return ok
}
