package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// deleteBatchSize bounds a single DEL during pattern invalidation.
const deleteBatchSize = 128

// Redis implements Cache over a Redis client. Pattern deletes use SCAN so a
// coarse invalidation does not block the server the way KEYS would.
type Redis struct {
	client *redis.Client
}

// NewRedis returns a Cache backed by the given Redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// GetJSON decodes the cached payload for key into out. Returns (false, nil) on miss.
func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value as JSON under key with the given TTL.
func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, raw, ttl).Err()
}

// DeleteByPattern removes every key matching the glob pattern, batching deletes.
func (r *Redis) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, deleteBatchSize).Iterator()
	batch := make([]string, 0, deleteBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= deleteBatchSize {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}
