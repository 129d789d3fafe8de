// Package cache stores encoded operation results.
//
// Three backends implement [Cache]:
//   - [FileCache] keeps entries as files for the CLI
//   - [RedisCache] shares entries between service replicas
//   - [NullCache] disables caching
//
// Keys are built by a [Keyer] so the CLI and the HTTP service agree on them.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the entry for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}
