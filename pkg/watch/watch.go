// Package watch reports changes to the scannable files of a workspace.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/praetorian-inc/testweave/internal/logger"
	"github.com/praetorian-inc/testweave/pkg/enum"
)

// DefaultDebounce is the quiet period before a batch of changes is
// reported.
const DefaultDebounce = 300 * time.Millisecond

// DefaultMaxBatch flushes early once this many distinct paths changed.
const DefaultMaxBatch = 100

// Config selects what is watched.
type Config struct {
	Root          string
	Include       []string // empty means enum.DefaultInclude
	Exclude       []string // nil means enum.DefaultExclude
	IncludeHidden bool
	Debounce      time.Duration
	MaxBatch      int
	Logger        *slog.Logger
}

// Watcher watches every directory below Root and calls onChange with the
// slash-separated relative paths of changed files the include globs select.
type Watcher struct {
	config    Config
	fsWatcher *fsnotify.Watcher
	fsMu      sync.Mutex
	debouncer *Debouncer
	log       *slog.Logger
}

// New starts watching cfg.Root and every directory below it. Changes made
// after New returns are reported once Run is called.
func New(cfg Config, onChange func(paths []string)) (*Watcher, error) {
	if len(cfg.Include) == 0 {
		cfg.Include = enum.DefaultInclude
	}
	if cfg.Exclude == nil {
		cfg.Exclude = enum.DefaultExclude
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	log := cfg.Logger
	if log == nil {
		log = logger.ForComponent("watch")
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.Root, err)
	}
	cfg.Root = root

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		log:       log,
	}
	w.debouncer = NewDebouncer(cfg.Debounce, cfg.MaxBatch, onChange)

	if err := w.addTree(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	log.Info("watching workspace", "root", root)
	return w, nil
}

// Run reports changes until ctx is cancelled, then flushes pending changes
// and releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok || w.ignored(rel) {
		return
	}
	w.log.Debug("file event", "path", rel, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Debug("failed to watch directory", "path", rel, "error", err)
			}
			return
		}
	}

	if !event.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
		return
	}
	if matchAny(w.config.Include, rel) {
		w.debouncer.Add(rel)
	}
}

// addTree watches dir and the directories below it that are not ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir {
			if rel, ok := w.relative(path); !ok || w.ignored(rel) || w.ignored(rel+"/") {
				return filepath.SkipDir
			}
		}

		w.fsMu.Lock()
		err = w.fsWatcher.Add(path)
		w.fsMu.Unlock()
		if err != nil {
			if path == dir {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			w.log.Debug("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// relative returns path relative to the root with forward slashes.
func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) ignored(rel string) bool {
	if !w.config.IncludeHidden {
		for _, part := range strings.Split(strings.TrimSuffix(rel, "/"), "/") {
			if strings.HasPrefix(part, ".") {
				return true
			}
		}
	}
	return matchAny(w.config.Exclude, rel)
}

func (w *Watcher) close() {
	w.debouncer.Stop()

	w.fsMu.Lock()
	defer w.fsMu.Unlock()
	if err := w.fsWatcher.Close(); err != nil {
		w.log.Debug("closing watcher", "error", err)
	}
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
