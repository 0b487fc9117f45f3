package cache

import (
	"sync"
	"time"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// Cache is a simple in-memory byte cache with TTL. It backs the catalog
// response cache when no redis instance is configured.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
}

// New creates a new cache
func New() *Cache {
	return &Cache{items: map[string]entry{}}
}

// Set stores a payload in the cache with a given TTL
func (c *Cache) Set(key string, payload []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
}

// Get retrieves a payload from the cache if it hasn't expired
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, exists := c.items[key]
	c.mu.RUnlock()
	if !exists {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.payload, true
}

// Delete removes a key from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
