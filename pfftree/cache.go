package pfftree

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// BoundedCache is the "bounded cache" spec.md §4.2 says every Cursor
// operation may go through on its way to decoding a node. It wraps
// hashicorp/golang-lru's adaptive-replacement cache, matching the
// teacher's own LRUCache wrapper.
//
// A zero BoundedCache is usable and defaults to a 128-entry cache;
// use NewBoundedCache to pick a different size.
type BoundedCache[K comparable, V any] struct {
	initOnce sync.Once
	inner    *lru.ARCCache
	size     int
}

func NewBoundedCache[K comparable, V any](size int) *BoundedCache[K, V] {
	c := &BoundedCache[K, V]{size: size}
	c.init()
	return c
}

func (c *BoundedCache[K, V]) init() {
	c.initOnce.Do(func() {
		size := c.size
		if size <= 0 {
			size = 128
		}
		c.inner, _ = lru.NewARC(size)
	})
}

func (c *BoundedCache[K, V]) Add(key K, value V) {
	c.init()
	c.inner.Add(key, value)
}

func (c *BoundedCache[K, V]) Get(key K) (value V, ok bool) {
	c.init()
	untyped, ok := c.inner.Get(key)
	if ok {
		//nolint:forcetypeassert // cache is only ever populated by this wrapper
		value = untyped.(V)
	}
	return value, ok
}

func (c *BoundedCache[K, V]) Remove(key K) {
	c.init()
	c.inner.Remove(key)
}

func (c *BoundedCache[K, V]) Purge() {
	c.init()
	c.inner.Purge()
}

func (c *BoundedCache[K, V]) Len() int {
	c.init()
	return c.inner.Len()
}
