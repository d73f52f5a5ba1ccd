// Package cache stores pipeline artifacts keyed by content hashes.
//
// Three backends implement [Cache]:
//
//   - [NullCache] never stores anything (caching disabled);
//   - [FileCache] keeps entries as JSON files under a directory, for the CLI;
//   - [RedisCache] keeps entries in Redis, for the HTTP server.
//
// Keys are produced by a [Keyer] from the hash of the scene, the
// configuration and the export options, so a cached artifact is reused
// only when everything it was computed from is unchanged.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the stored data and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend's resources.
	Close() error
}
