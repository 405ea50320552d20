package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory artifact store used in tests and as a scratch
// backend when persistence is not wanted.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates a new in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Initialize is a no-op for the memory store.
func (m *MemoryStore) Initialize(path string, readOnly bool) error {
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// Save serializes v as JSON under the given document name.
func (m *MemoryStore) Save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = data
	return nil
}

// Load deserializes the named document into out.
func (m *MemoryStore) Load(ctx context.Context, name string, out any) (bool, error) {
	m.mu.RLock()
	data, ok := m.docs[name]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshaling %s: %w", name, err)
	}
	return true, nil
}

// Raw returns the stored bytes of a document, for byte-level comparisons.
func (m *MemoryStore) Raw(name string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docs[name]
}
