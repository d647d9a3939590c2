package store

import (
	"context"
	"sync"
	"time"
)

type inMemory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	storage map[string]Entry
}

// NewMemoryStore returns a process local store.
// Entries older than ttl are not returned, zero ttl keeps entries forever.
func NewMemoryStore(ttl time.Duration) ResultStore {
	return &inMemory{ttl: ttl}
}

func (m *inMemory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return "", false, nil
	}
	e, ok := m.storage[key]
	if !ok || (m.ttl > 0 && time.Since(e.CreatedAt) > m.ttl) {
		return "", false, nil
	}
	return e.Value, true, nil
}

func (m *inMemory) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string]Entry)
	}
	m.storage[key] = Entry{Value: value, CreatedAt: time.Now()}
	return nil
}

func (m *inMemory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, key)
	}
	return nil
}
