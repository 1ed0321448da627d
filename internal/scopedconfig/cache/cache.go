// Package cache defines the resolution cache the engine populates and
// invalidates, with Redis and in-memory implementations.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key/value store for JSON payloads. Keys follow
// "<prefix>:<config key>:<scope part>"; invalidation deletes by glob pattern
// "<prefix>:<config key>:*".
type Cache interface {
	// GetJSON decodes the cached payload for key into out. Returns (false, nil)
	// on a miss; errors are transport failures, never misses.
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	// SetJSON stores value as JSON under key with the given TTL.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// DeleteByPattern removes every key matching the glob pattern.
	DeleteByPattern(ctx context.Context, pattern string) error
}
