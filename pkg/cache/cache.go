// Package cache provides a thread-safe LRU cache for compiled programs.
//
// The cache is used by the native engine when the WithCaching option is
// enabled. It avoids re-compiling the same program text on every call, which
// matters when the same source is evaluated against many argument sets.
//
// # Example
//
//	c := cache.New(1024)
//	prog, err := c.GetOrCompile("3 4 add", compile)
package cache

import (
	"container/list"
	"sync"

	"github.com/corentel/stackval/pkg/types"
)

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key  string
	prog *types.Program
}

// Cache is a thread-safe LRU (Least Recently Used) cache for compiled
// programs. Once the capacity is reached, the least recently accessed entry
// is evicted.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// New creates a new LRU cache with the given capacity.
// capacity must be > 0; if <= 0, a default of 256 is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get retrieves a compiled program from the cache.
// Returns (prog, true) if found and moves the entry to front (MRU).
// Returns (nil, false) if not present.
func (c *Cache) Get(key string) (*types.Program, bool) {
	c.mu.RLock()
	el, ok := c.items[key]
	alreadyFront := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !alreadyFront {
		// Promote to front under write lock; re-check in case of concurrent eviction.
		c.mu.Lock()
		el, ok = c.items[key]
		if ok {
			c.ll.MoveToFront(el)
		}
		c.mu.Unlock()

		if !ok {
			return nil, false
		}
	}
	return el.Value.(*entry).prog, true
}

// Set inserts or replaces a program in the cache.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(key string, prog *types.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).prog = prog
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	el := c.ll.PushFront(&entry{key: key, prog: prog})
	c.items[key] = el
}

// GetOrCompile retrieves the program for key from cache, or calls compile()
// to create it, caches the result, and returns it.
// Errors are not cached: a failing source is recompiled on every call.
func (c *Cache) GetOrCompile(key string, compile func() (*types.Program, error)) (*types.Program, error) {
	if prog, ok := c.Get(key); ok {
		return prog, nil
	}
	prog, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(key, prog)
	return prog, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
