package directory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	radix "github.com/mediocregopher/radix/v3"
)

// Cache remembers positive confirmations until their TTL elapses.
type Cache interface {
	Contains(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string, ttl time.Duration) error
}

// CacheKey derives the cache key for a token and principal. The raw token is never stored.
func CacheKey(principalID int64, token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("orders:identity:%s:%d", hex.EncodeToString(sum[:]), principalID)
}

// MemorySweepInterval is the least time between two sweeps of a MemoryCache.
const MemorySweepInterval = time.Minute

// MemoryCache is an in-process Cache. Expired entries are dropped on lookup,
// and Add sweeps all of them at most once per MemorySweepInterval.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	now       func() time.Time
	nextSweep time.Time
}

func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}

	return &MemoryCache{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

func (c *MemoryCache) Contains(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt, ok := c.entries[key]
	if !ok {
		return false, nil
	}

	if !c.now().Before(expiresAt) {
		delete(c.entries, key)
		return false, nil
	}

	return true, nil
}

func (c *MemoryCache) Add(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !now.Before(c.nextSweep) {
		for k, expiresAt := range c.entries {
			if !now.Before(expiresAt) {
				delete(c.entries, k)
			}
		}
		c.nextSweep = now.Add(MemorySweepInterval)
	}

	c.entries[key] = now.Add(ttl)
	return nil
}

// RedisCache stores confirmations in Redis with SETEX so that every replica shares them.
// radix v3 commands are not context aware, the context is accepted for the interface only.
type RedisCache struct {
	client radix.Client
}

func NewRedisCache(client radix.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Contains(_ context.Context, key string) (bool, error) {
	var exists int
	if err := c.client.Do(radix.Cmd(&exists, "EXISTS", key)); err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}

	return exists > 0, nil
}

func (c *RedisCache) Add(_ context.Context, key string, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	if err := c.client.Do(radix.FlatCmd(nil, "SETEX", key, seconds, "1")); err != nil {
		return fmt.Errorf("redis setex %s: %w", key, err)
	}

	return nil
}
