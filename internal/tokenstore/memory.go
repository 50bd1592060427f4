package tokenstore

import (
	"context"
	"sync"

	"github.com/johnpapajani/rezi-web-sub002/internal/errs"
)

// MemoryBackend is a process-local backend, used in tests and ephemeral
// embeddings where session material should not outlive the process.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: map[string]string{}}
}

// Get returns the stored value or errs.ErrNotFound.
func (m *MemoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// SetAll stores every entry under the write lock.
func (m *MemoryBackend) SetAll(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.entries[k] = v
	}
	return nil
}

// DeleteAll removes the keys under the write lock.
func (m *MemoryBackend) DeleteAll(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}
