package stampede

import (
	"context"
	"sync"
)

// MemoryCache is an unbounded in-memory Cache implementation.
// Thread-safe for concurrent reads and writes.
type MemoryCache[K comparable, V any] struct {
	id      string
	mu      sync.RWMutex
	entries map[K]V
}

// NewMemoryCache creates a new in-memory cache with the given identifier.
func NewMemoryCache[K comparable, V any](id string) *MemoryCache[K, V] {
	return &MemoryCache[K, V]{
		id:      id,
		entries: make(map[K]V),
	}
}

// ID returns the cache identifier.
func (c *MemoryCache[K, V]) ID() string {
	return c.id
}

// Size returns the number of entries.
func (c *MemoryCache[K, V]) Size(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

// Get returns the value stored for key.
func (c *MemoryCache[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.entries[key]
	return value, ok, nil
}

// Put stores value under key.
func (c *MemoryCache[K, V]) Put(_ context.Context, key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
	return nil
}

// Remove deletes the entry for key and returns the removed value.
func (c *MemoryCache[K, V]) Remove(_ context.Context, key K) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return value, ok, nil
}

// Clear removes all entries.
func (c *MemoryCache[K, V]) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]V)
	return nil
}
