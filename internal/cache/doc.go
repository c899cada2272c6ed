// Package cache provides a generic, concurrency-safe LRU cache.
//
//	c := cache.New[string, float32](1024)
//	c.Put("hello", 31.5)
//	w, ok := c.Get("hello")
//
// Fonts use it to memoize shaped advance widths, which word wrapping asks
// for repeatedly while growing a line one word at a time.
package cache
