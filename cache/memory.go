package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process slot. A non-positive TTL disables caching.
type Memory[T any] struct {
	mu    sync.RWMutex
	entry *Entry[T]
	ttl   time.Duration
	Clock func() time.Time
}

func NewMemory[T any](ttl time.Duration) *Memory[T] {
	return &Memory[T]{ttl: ttl, Clock: time.Now}
}

func (m *Memory[T]) Get(context.Context) (Entry[T], bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.entry == nil || m.Clock().Sub(m.entry.ComputedAt) >= m.ttl {
		return Entry[T]{}, false, nil
	}
	return *m.entry, true, nil
}

func (m *Memory[T]) Set(_ context.Context, e Entry[T]) error {
	if m.ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	m.entry = &e
	m.mu.Unlock()
	return nil
}

func (m *Memory[T]) Invalidate(context.Context) error {
	m.mu.Lock()
	m.entry = nil
	m.mu.Unlock()
	return nil
}
