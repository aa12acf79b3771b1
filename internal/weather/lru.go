package weather

import (
	"container/list"
	"sync"
)

// lru is a small least-recently-used cache. It is safe for concurrent use.
type lru[K comparable, V any] struct {
	items    map[K]*list.Element
	order    *list.List
	capacity int
	mu       sync.Mutex
}

type lruEntry[K comparable, V any] struct {
	key K
	val V
}

func newLRU[K comparable, V any](capacity int) *lru[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &lru[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it as recently used.
func (l *lru[K, V]) Get(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.items[key]; ok {
		l.order.MoveToFront(elem)
		return elem.Value.(*lruEntry[K, V]).val, true
	}
	var zero V
	return zero, false
}

// Put adds or replaces key, evicting the least recently used entry when full.
func (l *lru[K, V]) Put(key K, val V) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.items[key]; ok {
		elem.Value.(*lruEntry[K, V]).val = val
		l.order.MoveToFront(elem)
		return
	}
	for l.order.Len() >= l.capacity {
		oldest := l.order.Back()
		l.order.Remove(oldest)
		delete(l.items, oldest.Value.(*lruEntry[K, V]).key)
	}
	l.items[key] = l.order.PushFront(&lruEntry[K, V]{key: key, val: val})
}

// Len returns the number of cached entries.
func (l *lru[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}
