// Package cache implements the shared LRU utility spec.md §4.7 describes:
// a fixed-capacity key→value map with access-order eviction, exposing
// capacity/size/access-counter telemetry.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a generic fixed-capacity, access-order-evicting map. Capacity
// 0 is legal and keeps the cache permanently empty (spec.md §4.7).
// Safe for concurrent use: the underlying hashicorp/golang-lru cache is
// internally synchronized.
type Cache[K comparable, V any] struct {
	inner    *lru.Cache[K, V]
	capacity int
	hits     atomic.Int64
	misses   atomic.Int64
	evicts   atomic.Int64
}

// New creates a Cache of the given capacity. A capacity of 0 yields a
// cache that accepts writes but never retains anything.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	c := &Cache[K, V]{capacity: capacity}
	if capacity <= 0 {
		return c
	}
	inner, err := lru.NewWithEvict[K, V](capacity, func(K, V) {
		c.evicts.Add(1)
	})
	if err != nil {
		// capacity > 0 is guaranteed above, so NewWithEvict cannot fail.
		panic(err)
	}
	c.inner = inner
	return c
}

// Get looks up key, updating recency on a hit.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if c.inner == nil {
		var zero V
		c.misses.Add(1)
		return zero, false
	}
	v, ok := c.inner.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Add inserts or overwrites key, evicting the least-recently-accessed
// entry if the cache is at capacity. A capacity-0 cache discards the
// write immediately.
func (c *Cache[K, V]) Add(key K, value V) {
	if c.inner == nil {
		return
	}
	c.inner.Add(key, value)
}

// Remove drops key if present.
func (c *Cache[K, V]) Remove(key K) {
	if c.inner == nil {
		return
	}
	c.inner.Remove(key)
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int {
	if c.inner == nil {
		return 0
	}
	return c.inner.Len()
}

// Capacity returns the cache's fixed capacity.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Stats is the telemetry surface spec.md §4.7 requires: capacity, size,
// and access counters.
type Stats struct {
	Capacity  int
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
}

func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Capacity:  c.capacity,
		Size:      c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
	}
}
