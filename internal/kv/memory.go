package kv

import (
	"context"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/subfrost/runicbtcfederation/common/errs"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store, used by tests and the "memory" database option.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[string(key)]
	if !ok {
		return nil, errors.WithStack(errs.NotFound)
	}
	return slices.Clone(value), nil
}

func (m *MemoryStore) Put(_ context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = slices.Clone(value)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemoryStore) WriteBatch(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range entries {
		if entry.Value == nil {
			delete(m.data, string(entry.Key))
			continue
		}
		m.data[string(entry.Key)] = slices.Clone(entry.Value)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryStore) Close() error {
	return nil
}
