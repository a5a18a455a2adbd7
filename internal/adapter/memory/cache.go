package memory

import (
	"context"
	"sync"
	"time"

	portidem "github.com/envino/wine-api/internal/port/idempotency"
)

var _ portidem.Store = (*Cache)(nil)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a process-local TTL store used for idempotency records when no
// shared store is configured.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, portidem.ErrNotFound
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, portidem.ErrNotFound
	}
	return entry.value, nil
}

func (c *Cache) SetIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.entries[key]; ok && !now.After(entry.expiresAt) {
		return false, nil
	}
	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: now.Add(ttl),
	}
	return true, nil
}
