// Package cache provides the bounded result cache shared between engine
// invocations.
package cache

import "sync"

// DefaultCapacity is the number of entries kept before eviction starts.
const DefaultCapacity = 100

// FIFO is a bounded map that evicts the oldest inserted key once capacity is
// exceeded. Reads do not refresh an entry's position. It is safe for
// concurrent use.
type FIFO[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]V
	order    []K
}

// NewFIFO returns an empty cache. A capacity below 1 uses DefaultCapacity.
func NewFIFO[K comparable, V any](capacity int) *FIFO[K, V] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &FIFO[K, V]{
		capacity: capacity,
		items:    make(map[K]V, capacity+1),
		order:    make([]K, 0, capacity+1),
	}
}

func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

// Put stores value under key. Replacing an existing key keeps its original
// insertion position.
func (c *FIFO[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		c.items[key] = value
		return
	}
	c.items[key] = value
	c.order = append(c.order, key)

	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *FIFO[K, V]) Capacity() int {
	return c.capacity
}

// Purge drops every entry.
func (c *FIFO[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
	c.order = c.order[:0]
}
