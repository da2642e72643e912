package service

import (
	"container/list"
	"sync"
)

// DefaultEmbeddingCacheSize bounds the number of cached query and passage vectors.
const DefaultEmbeddingCacheSize = 1000

// EmbeddingCache is a bounded text → vector map evicting in insertion order.
// Lookups do not refresh an entry's position. Safe for concurrent use.
type EmbeddingCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key    string
	vector []float32
}

// NewEmbeddingCache creates a cache holding at most capacity vectors.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	if capacity <= 0 {
		capacity = DefaultEmbeddingCacheSize
	}
	return &EmbeddingCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns a copy of the vector cached for text.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	el, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	return copyVector(el.Value.(*cacheEntry).vector), true
}

// Put stores a copy of vector. Overwriting an existing key keeps its original position.
func (c *EmbeddingCache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[text]; ok {
		el.Value.(*cacheEntry).vector = copyVector(vector)
		return
	}

	for c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	c.entries[text] = c.order.PushBack(&cacheEntry{key: text, vector: copyVector(vector)})
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// Capacity returns the configured bound.
func (c *EmbeddingCache) Capacity() int {
	return c.capacity
}

// Clear drops every entry.
func (c *EmbeddingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}
