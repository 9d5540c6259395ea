package price

import (
	"sync"
	"time"
)

type cachedPrice struct {
	price   float64
	fetched time.Time
}

// Cache is a time-boxed price map. Entries older than the TTL are treated as
// missing; Reset clears everything.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedPrice
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: map[string]cachedPrice{}, now: time.Now}
}

func (c *Cache) Get(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetched) >= c.ttl {
		return 0, false
	}
	return e.price, true
}

func (c *Cache) Set(key string, price float64) {
	c.mu.Lock()
	c.entries[key] = cachedPrice{price: price, fetched: c.now()}
	c.mu.Unlock()
}

func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = map[string]cachedPrice{}
	c.mu.Unlock()
}

// Len counts entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
