package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// Memory is an in-memory Cache for tests and single-process development.
// Expired entries are dropped lazily on read.
type Memory struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// NewMemory returns a new in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		m:    make(map[string]entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// GetJSON decodes the cached payload for key into out. Returns (false, nil) on
// a miss or an expired entry.
func (c *Memory) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !e.expiresAt.After(c.nowF()) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.payload, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value as JSON under key until now+ttl.
func (c *Memory) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.m[key] = entry{payload: raw, expiresAt: c.nowF().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// DeleteByPattern removes every key matching the glob pattern.
func (c *Memory) DeleteByPattern(ctx context.Context, pattern string) error {
	g, err := glob.Compile(pattern)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.m {
		if g.Match(k) {
			delete(c.m, k)
		}
	}
	return nil
}
