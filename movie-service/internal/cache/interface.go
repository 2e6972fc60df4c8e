package cache

import (
	"context"
	"time"
)

// Cache stores JSON-encoded values under string keys.
type Cache interface {
	// Get decodes the value at key into dest. It returns ErrCacheMiss when
	// the key is absent.
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// BuildKey joins parts under the cache prefix.
	BuildKey(parts ...string) string
	Close() error
}
