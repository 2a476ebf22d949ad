package cache

import "sync"

// Cache is a generic thread-safe LRU cache with a hard capacity and an
// eviction callback. When an insertion pushes the cache past capacity, the
// least recently used entry is removed and handed to the callback, which is
// where owners release whatever resource the value pins.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	onEvict  func(K, V)
	entries  map[K]*cacheEntry[K, V]
	order    lruList[K]
}

// cacheEntry holds a cached value and its node in the recency list.
type cacheEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates a cache holding at most capacity entries. A capacity of 0
// means unlimited. onEvict may be nil; when set it is called outside the
// cache lock for every entry removed by capacity eviction, Delete or Purge.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		capacity: capacity,
		onEvict:  onEvict,
		entries:  make(map[K]*cacheEntry[K, V]),
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(entry.node)
	return entry.value, true
}

// Add stores a value as most recently used. Adding over an existing key
// evicts the previous value. Entries evicted to stay within capacity are
// passed to the eviction callback after the lock is released.
func (c *Cache[K, V]) Add(key K, value V) {
	var evicted []evictedPair[K, V]

	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		evicted = append(evicted, evictedPair[K, V]{key, old.value})
		c.order.Remove(old.node)
	}
	c.entries[key] = &cacheEntry[K, V]{value: value, node: c.order.PushFront(key)}
	for c.capacity > 0 && len(c.entries) > c.capacity {
		k, ok := c.order.RemoveOldest()
		if !ok {
			break
		}
		evicted = append(evicted, evictedPair[K, V]{k, c.entries[k].value})
		delete(c.entries, k)
	}
	c.mu.Unlock()

	c.runEvict(evicted)
}

// Delete removes an entry, passing it to the eviction callback. It reports
// whether the key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok {
		c.order.Remove(entry.node)
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if ok {
		c.runEvict([]evictedPair[K, V]{{key, entry.value}})
	}
	return ok
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge removes every entry, passing each to the eviction callback.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	evicted := make([]evictedPair[K, V], 0, len(c.entries))
	for k, e := range c.entries {
		evicted = append(evicted, evictedPair[K, V]{k, e.value})
	}
	c.entries = make(map[K]*cacheEntry[K, V])
	c.order.Clear()
	c.mu.Unlock()

	c.runEvict(evicted)
}

type evictedPair[K comparable, V any] struct {
	key   K
	value V
}

func (c *Cache[K, V]) runEvict(evicted []evictedPair[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, e := range evicted {
		c.onEvict(e.key, e.value)
	}
}
