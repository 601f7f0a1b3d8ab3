package stampede

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// LRUCache is a fixed-capacity Cache with least-recently-used eviction.
// Capacity is counted in entries; when it is exceeded, the entry that has
// not been read or written for the longest time is evicted.
type LRUCache[K comparable, V any] struct {
	id        string
	mu        sync.Mutex
	capacity  int
	items     map[K]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRUCache creates a new LRU cache with the given capacity in entries.
// A capacity <= 0 is treated as 1.
func NewLRUCache[K comparable, V any](id string, capacity int) *LRUCache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCache[K, V]{
		id:        id,
		capacity:  capacity,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// ID returns the cache identifier.
func (c *LRUCache[K, V]) ID() string {
	return c.id
}

// Size returns the number of entries.
func (c *LRUCache[K, V]) Size(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items), nil
}

// Get returns the value stored for key and marks it most recently used.
func (c *LRUCache[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*lruEntry[K, V]).value, true, nil
	}
	c.misses.Add(1)

	var zero V
	return zero, false, nil
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRUCache[K, V]) Put(_ context.Context, key K, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*lruEntry[K, V]).value = value
		return nil
	}

	element := c.evictList.PushFront(&lruEntry[K, V]{key: key, value: value})
	c.items[key] = element

	for len(c.items) > c.capacity {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}
	return nil
}

// Remove deletes the entry for key and returns the removed value.
func (c *LRUCache[K, V]) Remove(_ context.Context, key K) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		value := ent.Value.(*lruEntry[K, V]).value
		c.removeElement(ent)
		return value, true, nil
	}

	var zero V
	return zero, false, nil
}

// Clear removes all entries. Hit/miss counters are not reset.
func (c *LRUCache[K, V]) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.evictList.Init()
	return nil
}

// Stats returns the hit/miss counters.
func (c *LRUCache[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRUCache[K, V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	ent := e.Value.(*lruEntry[K, V])
	delete(c.items, ent.key)
}
