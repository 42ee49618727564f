// Package interfaces defines the contracts used throughout the application.
// These interfaces allow for dependency injection and make the core testable.
package interfaces

import (
	"context"
	"time"
)

// Cache defines the byte-oriented cache backend contract. Implementations can
// be in-memory, SQLite, or Redis.
type Cache interface {
	// Get retrieves a value by key. A missing or expired key returns
	// (nil, nil); errors are reserved for backend failures.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A ttl of 0 stores indefinitely.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Sweep evicts expired entries to bound memory. Backends with native
	// expiry (Redis) may implement this as a no-op.
	Sweep(ctx context.Context) error
}
