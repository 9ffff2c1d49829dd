// Package cache provides the bounded in-memory count caches shared by the
// query layer. Counts are read-through and never invalidated: the archive is
// only written by the external archiver process, so cached totals may go
// stale until the next restart. That staleness is an accepted trade-off of
// the design, not a bug.
package cache

import (
	"sync"
)

// Counts is a bounded key-to-total cache. When the cache is full, inserting
// a new key evicts an arbitrary existing entry. Safe for concurrent use.
type Counts[K comparable] struct {
	mu       sync.RWMutex
	capacity int
	entries  map[K]int
}

func NewCounts[K comparable](capacity int) *Counts[K] {
	if capacity < 1 {
		capacity = 1
	}
	return &Counts[K]{
		capacity: capacity,
		entries:  make(map[K]int, capacity),
	}
}

func (c *Counts[K]) Get(key K) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total, ok := c.entries[key]
	return total, ok
}

func (c *Counts[K]) Put(key K, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.capacity {
		for victim := range c.entries {
			delete(c.entries, victim)
			break
		}
	}
	c.entries[key] = total
}

func (c *Counts[K]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
