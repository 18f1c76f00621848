package settings

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a full settings load is served from memory.
const DefaultCacheTTL = 5 * time.Minute

// Cache holds the last full load of the settings table for a fixed window.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	nowFunc  func() time.Time
	values   map[string]string
	loadedAt time.Time
}

// NewCache returns an empty cache. A nil now defaults to time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, nowFunc: now}
}

// Get returns the cached values if they were loaded less than ttl ago.
func (c *Cache) Get() (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil || c.nowFunc().Sub(c.loadedAt) >= c.ttl {
		return nil, false
	}
	return c.values, true
}

// Put replaces the cached values and restarts the expiry window.
func (c *Cache) Put(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = values
	c.loadedAt = c.nowFunc()
}

// Invalidate drops the cached values.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = nil
	c.loadedAt = time.Time{}
}
