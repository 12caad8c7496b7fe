package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
// Used for ":memory:" paths, the stdio server and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	scans  []*types.ScanResult // in save order
	cycles []*types.Cycle      // in creation order
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// SaveScan stores a scan. Saving the same ID again replaces it.
func (m *MemoryStore) SaveScan(result *types.ScanResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("scan result has no ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.scans {
		if s.ID == result.ID {
			m.scans[i] = result
			return nil
		}
	}
	m.scans = append(m.scans, result)
	return nil
}

// LatestScan returns the most recently saved scan.
func (m *MemoryStore) LatestScan(cycle string) (*types.ScanResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.scans) - 1; i >= 0; i-- {
		if cycle == "" || m.scans[i].Cycle == cycle {
			return m.scans[i], nil
		}
	}
	return nil, fmt.Errorf("latest scan: %w", ErrNotFound)
}

// GetScan returns a scan by ID.
func (m *MemoryStore) GetScan(id string) (*types.ScanResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.scans {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("scan %s: %w", id, ErrNotFound)
}

// CreateCycle records a new cycle.
func (m *MemoryStore) CreateCycle(name string) (*types.Cycle, error) {
	if err := ValidateCycleName(name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.cycles {
		if c.Name == name {
			return nil, fmt.Errorf("%w: %s", ErrCycleExists, name)
		}
	}
	c := &types.Cycle{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	m.cycles = append(m.cycles, c)
	return c, nil
}

// ListCycles returns a copy of the cycles, oldest first.
func (m *MemoryStore) ListCycles() ([]*types.Cycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Cycle, len(m.cycles))
	copy(result, m.cycles)
	return result, nil
}

// GetCycle returns a cycle by name.
func (m *MemoryStore) GetCycle(name string) (*types.Cycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.cycles {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("cycle %s: %w", name, ErrNotFound)
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
