package cache

import (
	"sync"
	"time"
)

// Cache is a small TTL map keyed by string. Expired keys are dropped lazily
// on read, so a key that is never read again stays until it is overwritten.
type Cache[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[string]item[V]
}

type item[V any] struct {
	val V
	exp time.Time
}

func New[V any](ttl time.Duration) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache[V]{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]item[V]),
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mu.RLock()
	it, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}

	if !c.now().Before(it.exp) {
		c.mu.Lock()
		// another writer may have refreshed the key in between
		if cur, ok := c.m[key]; ok && cur.exp.Equal(it.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return it.val, true
}

func (c *Cache[V]) Set(key string, val V) {
	c.mu.Lock()
	c.m[key] = item[V]{val: val, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}
