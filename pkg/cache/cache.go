// Package cache provides byte-oriented caches used to memoize layout results.
//
// # Backends
//
//   - [FileCache]: entries as JSON files under a directory, for the CLI
//   - [RedisCache]: entries in Redis, shared by server instances
//   - [NullCache]: never stores anything; caching disabled
//
// All backends honour a per-entry TTL. A zero TTL means the entry does not
// expire.
//
// # Keys
//
// A [Keyer] turns a graph's structural hash and the layout engine into a
// cache key. [ScopedKeyer] prefixes keys so several sessions can share one
// Redis database without seeing each other's entries.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values by key.
type Cache interface {
	// Get returns the value and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// NullCache is a no-op cache that never stores anything.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
