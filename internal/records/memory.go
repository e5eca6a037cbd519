package records

import (
	"context"
	"sync"
)

// MemoryStore keeps each collection as its encoded JSON form, so callers
// never share maps with the store and values normalize exactly as they do on
// disk.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Read(ctx context.Context, name string) ([]Record, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	m.mu.RLock()
	b, ok := m.data[name]
	m.mu.RUnlock()
	if !ok {
		m.mu.Lock()
		if _, ok := m.data[name]; !ok {
			m.data[name] = []byte("[]")
		}
		b = m.data[name]
		m.mu.Unlock()
	}
	return decodeCollection(name, b)
}

func (m *MemoryStore) Write(ctx context.Context, name string, recs []Record) error {
	if err := checkName(name); err != nil {
		return err
	}
	b, err := encodeCollection(recs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[name] = b
	m.mu.Unlock()
	return nil
}
