package settings

import (
	"context"
	"sync"
)

// Store persists the single settings record.
//
// Load returns nil (and no error) when nothing has been saved yet; callers
// treat a nil record as "nothing selected". Save replaces the record
// wholesale.
type Store interface {
	Load(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// Memory is an in-process Store, used in tests and single-run tooling.
type Memory struct {
	mu      sync.RWMutex
	current *Settings
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the last saved record, or nil when none exists.
func (m *Memory) Load(ctx context.Context) (*Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, nil
	}
	copied := *m.current
	return &copied, nil
}

// Save replaces the record.
func (m *Memory) Save(ctx context.Context, s *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == nil {
		m.current = nil
		return nil
	}
	copied := *s
	m.current = &copied
	return nil
}
