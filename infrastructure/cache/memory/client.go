// ABOUTME: In-memory cache backend built on go-cache
// ABOUTME: Default backend; suitable for single-instance deployments

package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements the Cache interface using an in-process store.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates an in-memory cache. defaultTTL applies when Set is
// called with ttl 0. The library's own janitor is disabled; expired entries
// are reaped through Sweep so eviction timing stays under the caller's
// control.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(defaultTTL, 0),
	}
}

// Get retrieves a value by key. Expired or absent keys return (nil, nil).
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, found := c.store.Get(key)
	if !found {
		return nil, nil
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, nil
	}
	return data, nil
}

// Set stores a value with the given TTL.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		c.store.Set(key, value, gocache.NoExpiration)
		return nil
	}
	c.store.Set(key, value, ttl)
	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Sweep evicts expired entries.
func (c *MemoryCache) Sweep(ctx context.Context) error {
	c.store.DeleteExpired()
	return nil
}
