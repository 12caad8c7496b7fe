package store

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/praetorian-inc/testweave/pkg/types"
)

var (
	// ErrNotFound is returned when a requested scan or cycle does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCycleExists is returned when creating a cycle whose name is taken.
	ErrCycleExists = errors.New("cycle already exists")
	// ErrInvalidCycleName is returned for names ValidateCycleName rejects.
	ErrInvalidCycleName = errors.New("invalid cycle name")
)

// Store provides persistence for scan results and test cycles.
// This interface abstracts the underlying storage implementation,
// allowing for different backends.
type Store interface {
	// SaveScan stores a finished scan and its occurrences.
	SaveScan(result *types.ScanResult) error

	// LatestScan returns the most recent scan, restricted to one cycle
	// unless cycle is empty. ErrNotFound when there is none.
	LatestScan(cycle string) (*types.ScanResult, error)

	// GetScan returns a scan by ID.
	GetScan(id string) (*types.ScanResult, error)

	// CreateCycle records a new named cycle.
	CreateCycle(name string) (*types.Cycle, error)

	// ListCycles returns all cycles, oldest first.
	ListCycles() ([]*types.Cycle, error)

	// GetCycle returns a cycle by name.
	GetCycle(name string) (*types.Cycle, error)

	// Close closes the database connection.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for in-memory database (useful for testing).
	Path string
}

// New creates a new Store. ":memory:" selects MemoryStore, anything else
// a SQLite file.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}

var cycleNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ValidateCycleName checks that name is 1-64 characters of letters,
// digits, '.', '_' or '-'.
func ValidateCycleName(name string) error {
	if !cycleNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: use 1-64 characters of A-Z, a-z, 0-9, '.', '_' or '-'", ErrInvalidCycleName, name)
	}
	return nil
}
