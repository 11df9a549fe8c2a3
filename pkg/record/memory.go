package record

import (
	"context"
	"sync"
)

// Memory is an in-memory Store for tests and dry environments.
type Memory struct {
	mu      sync.Mutex
	applied map[string]bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{applied: make(map[string]bool)}
}

func (m *Memory) IsApplied(_ context.Context, unitID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied[unitID], nil
}

func (m *Memory) MarkApplied(_ context.Context, unitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied[unitID] = true
	return nil
}

func (m *Memory) Applied(_ context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.applied))
	for id := range m.applied {
		out[id] = true
	}
	return out, nil
}
