package store

import (
	"sync"
	"sync/atomic"
)

// FIFOCache is a bounded map that evicts its oldest entry when full.
type FIFOCache[K comparable, V any] struct {
	mu         sync.RWMutex
	maxEntries int
	cache      map[K]V
	order      []K // insertion order for eviction
	hits       uint64
	misses     uint64
}

// NewFIFOCache creates a cache holding at most maxEntries values (minimum 1).
func NewFIFOCache[K comparable, V any](maxEntries int) *FIFOCache[K, V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &FIFOCache[K, V]{
		maxEntries: maxEntries,
		cache:      make(map[K]V),
		order:      make([]K, 0, maxEntries),
	}
}

// Get retrieves a value.
func (c *FIFOCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	v, ok := c.cache[key]
	c.mu.RUnlock()

	if ok {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	return v, ok
}

// Put adds or updates a value. Updating does not refresh its age.
func (c *FIFOCache[K, V]) Put(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cache[key]; exists {
		c.cache[key] = v
		return
	}

	for len(c.cache) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.cache, oldest)
	}

	c.cache[key] = v
	c.order = append(c.order, key)
}

// Len returns the number of entries.
func (c *FIFOCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stats returns lookup hits and misses.
func (c *FIFOCache[K, V]) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}
