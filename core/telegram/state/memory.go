package state

import "sync"

type memoryStore[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
}

// NewMemoryStore constructs an in-memory Store. Values do not survive a restart.
func NewMemoryStore[T any]() Store[T] {
	return &memoryStore[T]{sessions: make(map[int64]T)}
}

func (m *memoryStore[T]) Get(userID int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.sessions[userID]
	return v, ok
}

func (m *memoryStore[T]) Set(userID int64, value T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = value
}

func (m *memoryStore[T]) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

func (m *memoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
