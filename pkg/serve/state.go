package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/praetorian-inc/testweave/pkg/scanner"
	"github.com/praetorian-inc/testweave/pkg/store"
	"github.com/praetorian-inc/testweave/pkg/types"
	"github.com/praetorian-inc/testweave/pkg/workspace"
)

// ErrInvalidWorkspace is returned by SetWorkspace for paths that are not
// existing directories.
var ErrInvalidWorkspace = errors.New("invalid workspace path")

// Options configures a State.
type Options struct {
	// Root is the server root. The workspace pointer lives below it.
	Root string

	// Persist stores every scan in the workspace database.
	Persist bool

	// Logger receives request and scan records. Nil means slog.Default().
	Logger *slog.Logger
}

// State is shared by the HTTP and stdio front ends: the server root, the
// selected workspace and the most recent scan.
type State struct {
	root    string
	persist bool
	logger  *slog.Logger
	events  *Hub

	// scanMu serializes scans so results replace each other in order.
	scanMu sync.Mutex

	mu        sync.RWMutex
	workspace string
	last      *types.ScanResult
}

// NewState resolves the server root and loads its workspace pointer.
func NewState(opts Options) (*State, error) {
	root, err := workspace.Resolve(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("server root: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		root:      root,
		persist:   opts.Persist,
		logger:    logger,
		events:    NewHub(logger),
		workspace: workspace.Load(root),
	}, nil
}

// Root returns the server root.
func (s *State) Root() string {
	return s.root
}

// Workspace returns the selected workspace.
func (s *State) Workspace() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspace
}

// Events returns the hub scan events are published on.
func (s *State) Events() *Hub {
	return s.events
}

// Config loads the configuration of the selected workspace.
func (s *State) Config() (workspace.Config, error) {
	return workspace.LoadConfig(s.Workspace())
}

// SetWorkspace selects path as the workspace and records it under the
// server root. The cached scan is dropped when the workspace changes.
func (s *State) SetWorkspace(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidWorkspace)
	}
	ws, err := workspace.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidWorkspace, path)
	}
	if err := workspace.Save(s.root, ws); err != nil {
		return "", err
	}

	s.mu.Lock()
	if ws != s.workspace {
		s.workspace = ws
		s.last = nil
	}
	s.mu.Unlock()

	s.logger.Info("workspace selected", "workspace", ws)
	return ws, nil
}

// LastScan returns the cached scan, falling back to the latest stored one
// when persistence is on. Nil when there is neither.
func (s *State) LastScan() *types.ScanResult {
	s.mu.RLock()
	last, ws := s.last, s.workspace
	s.mu.RUnlock()
	if last != nil || !s.persist {
		return last
	}

	if _, err := os.Stat(workspace.DatabasePath(ws)); err != nil {
		return nil
	}
	st, err := store.New(store.Config{Path: workspace.DatabasePath(ws)})
	if err != nil {
		s.logger.Warn("opening scan database", "workspace", ws, "error", err)
		return nil
	}
	defer st.Close()

	result, err := st.LatestScan("")
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("loading latest scan", "workspace", ws, "error", err)
		}
		return nil
	}
	return result
}

// Scan scans the selected workspace. Non-empty globs replace the
// configured include globs for this scan. The result becomes the cached
// scan and is published as an event.
func (s *State) Scan(ctx context.Context, globs []string) (*types.ScanResult, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	ws := s.Workspace()
	cfg, err := workspace.LoadConfig(ws)
	if err != nil {
		return nil, err
	}
	if len(globs) > 0 {
		cfg.Include = globs
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	core := scanner.NewCore(scanner.Options{Headings: cfg.Headings, Logger: s.logger})
	result, err := core.ScanWorkspace(ctx, cfg.EnumConfig(ws), cfg.Git)
	if err != nil {
		return nil, err
	}

	if s.persist {
		if err := s.save(ws, result); err != nil {
			s.logger.Warn("storing scan", "scan", result.ID, "error", err)
		}
	}

	s.mu.Lock()
	if s.workspace == ws {
		s.last = result
	}
	s.mu.Unlock()

	s.events.Publish(ScanEvent(result))
	return result, nil
}

func (s *State) save(ws string, result *types.ScanResult) error {
	if err := os.MkdirAll(workspace.Dir(ws), 0o755); err != nil {
		return err
	}
	st, err := store.New(store.Config{Path: workspace.DatabasePath(ws)})
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveScan(result)
}

// ScanEvent summarizes a finished scan for event subscribers.
func ScanEvent(result *types.ScanResult) Event {
	return Event{
		Type:        "scan",
		Scan:        result.ID,
		Workspace:   result.Workspace,
		TestCases:   result.Inventory.Stats.TestCases,
		Diagnostics: len(result.Inventory.Diagnostics),
		Timestamp:   result.FinishedAt.UTC().Format(time.RFC3339),
	}
}
