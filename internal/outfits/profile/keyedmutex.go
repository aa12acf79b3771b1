package profile

import "sync"

// keyedMutex serializes work per key. Entries are dropped once no
// goroutine holds or waits on them.
type keyedMutex struct {
	locks map[Key]*keyedEntry
	mu    sync.Mutex
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[Key]*keyedEntry)}
}

// Lock blocks until k is free and returns the matching unlock.
func (m *keyedMutex) Lock(k Key) func() {
	m.mu.Lock()
	e, ok := m.locks[k]
	if !ok {
		e = &keyedEntry{}
		m.locks[k] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(m.locks, k)
		}
		m.mu.Unlock()
	}
}
