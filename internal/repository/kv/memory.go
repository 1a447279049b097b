package kv

import (
	"context"
	"sync"

	"apparel-storefront/internal/domain"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory returns a process-local Store. Contents are lost on restart.
func NewMemory() Store {
	return &memoryStore{entries: make(map[string]string)}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	v, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.entries[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Ping(_ context.Context) error {
	return nil
}
