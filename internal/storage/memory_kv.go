package storage

import (
	"context"
	"sync"
)

type memoryKV struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryKV returns a process-local store. Contents are lost on exit.
func NewMemoryKV() IKeyValueStore {
	return &memoryKV{slots: make(map[string][]byte)}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), value...)
	return nil
}
