// Package cache provides a small in-memory TTL cache used for hot-path plan
// tier lookups.
package cache

import (
	"sync"
	"time"
)

// Cache is the contract the plan oracle consumes: read-through lookups and
// TTL-bounded writes. Eviction is internal; expired entries drop on read.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache stores values in memory with a per-entry TTL. Expired entries are
// dropped lazily on read.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]entry[V]
}

// NewTTLCache constructs an empty TTLCache.
func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return &TTLCache[K, V]{items: make(map[K]entry[V])}
}

// Get returns a cached value if present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.evict(key)
		return zero, false
	}
	return item.value, true
}

// Set stores a value. A zero or negative TTL stores the value without expiry.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	item := entry[V]{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) evict(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Noop always misses. Used when plan caching is disabled so cancellation
// downgrades take effect on the next request.
type Noop[K comparable, V any] struct{}

func (Noop[K, V]) Get(key K) (V, bool) {
	var zero V
	return zero, false
}

func (Noop[K, V]) Set(key K, value V, ttl time.Duration) {}
