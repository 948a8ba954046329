// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package cache

import (
	"container/list"
	"sync"
)

// entry is one element of the eviction list.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// lru is a least-recently-used cache with a fixed capacity.  The cache
// can be safely accessed from multiple goroutines.
type lru[K comparable, V any] struct {
	size      int
	lock      sync.RWMutex
	evictList *list.List
	index     map[K]*list.Element
}

func newLRU[K comparable, V any](size int) *lru[K, V] {
	return &lru[K, V]{
		size:      size,
		evictList: list.New(),
		index:     make(map[K]*list.Element),
	}
}

// Get retrieves an item from the cache.  If it is not present, calls
// fetch, and if that succeeds, saves the item and returns it.  This
// returns an error only if the item is absent and fetch fails.
//
// fetch runs under the write lock, so concurrent lookups of different
// keys wait for each other.
func (c *lru[K, V]) Get(key K, fetch func(K) (V, error)) (V, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, present := c.index[key]; present {
		c.evictList.MoveToBack(element)
		return element.Value.(*entry[K, V]).value, nil
	}

	value, err := fetch(key)
	if err != nil {
		return value, err
	}
	c.add(key, value)
	return value, nil
}

// Peek returns the item for key and whether it was present, without
// affecting its recency.
func (c *lru[K, V]) Peek(key K) (V, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if element, present := c.index[key]; present {
		return element.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put adds or replaces an item, possibly evicting something.
func (c *lru[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, present := c.index[key]; present {
		element.Value.(*entry[K, V]).value = value
		c.evictList.MoveToBack(element)
		return
	}
	c.add(key, value)
}

// Remove takes an item out of the cache.  It does nothing if key is
// absent.
func (c *lru[K, V]) Remove(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, present := c.index[key]; present {
		delete(c.index, key)
		c.evictList.Remove(element)
	}
}

// Len returns the number of cached items.
func (c *lru[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.index)
}

// add runs under the write lock and adds an item known to be absent.
func (c *lru[K, V]) add(key K, value V) {
	c.index[key] = c.evictList.PushBack(&entry[K, V]{key: key, value: value})

	for len(c.index) > c.size {
		head := c.evictList.Front()
		delete(c.index, head.Value.(*entry[K, V]).key)
		c.evictList.Remove(head)
	}
}
