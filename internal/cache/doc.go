// Package cache provides a generic LRU cache with an eviction callback.
//
// The callback makes the cache suitable for values that pin external
// resources, such as owning handles into descriptor tables: eviction hands
// the entry back to the owner, which releases the handle.
//
//	c := cache.New[string, Handle](100, func(_ string, h Handle) { h.Release() })
//	c.Add("key", h)
//	h, ok := c.Get("key")
//
// Cache is safe for concurrent use. It must not be copied after creation
// (it contains a mutex).
package cache
