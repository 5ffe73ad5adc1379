package cache

import (
	"sync"
	"time"
)

// TTLCache is an in-process cache for expensive read queries (the product
// group listing). Writes that change the cached shape must call Invalidate.
// The clock is injected so expiry is testable.
type TTLCache struct {
	mu       sync.Mutex
	entries  map[string]entry
	ttl      time.Duration
	maxItems int
	now      func() time.Time
}

type entry struct {
	expiresAt time.Time
	value     interface{}
}

// New creates a TTLCache. A non-positive ttl disables caching entirely;
// maxItems below 10 is raised to 10.
func New(ttl time.Duration, maxItems int, now func() time.Time) *TTLCache {
	if now == nil {
		now = time.Now
	}
	if maxItems < 10 {
		maxItems = 10
	}
	return &TTLCache{
		entries:  make(map[string]entry),
		ttl:      ttl,
		maxItems: maxItems,
		now:      now,
	}
}

// Get returns the cached value for key, or nil when absent or expired.
func (c *TTLCache) Get(key string) interface{} {
	if c == nil || c.ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.After(c.now()) {
		delete(c.entries, key)
		return nil
	}
	return e.value
}

// Set stores value under key, evicting expired entries and trimming overflow.
func (c *TTLCache) Set(key string, value interface{}) {
	if c == nil || c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{expiresAt: now.Add(c.ttl), value: value}
	for k, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, k)
		}
	}
	for len(c.entries) > c.maxItems {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
}

// Invalidate drops every entry. Called by any write path that changes the
// cached shape (sync, deactivate, inherit).
func (c *TTLCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
