// Package workspace manages the on-disk layout of a testweave project: the
// workspace pointer kept under the server root and the per-workspace
// configuration and database.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File layout below a root or workspace directory.
const (
	DirName      = ".qa"
	PointerFile  = "workspace.json"
	ConfigFile   = "testweave.yaml"
	DatabaseFile = "testweave.db"
)

// ErrNotDirectory is returned by Resolve for paths that exist but are not
// directories.
var ErrNotDirectory = errors.New("not a directory")

// pointer is the JSON document stored in workspace.json.
type pointer struct {
	Workspace string `json:"workspace"`
}

// Dir returns the .qa directory below root.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// PointerPath returns where the workspace pointer of root lives.
func PointerPath(root string) string {
	return filepath.Join(Dir(root), PointerFile)
}

// DatabasePath returns the scan database of a workspace.
func DatabasePath(ws string) string {
	return filepath.Join(Dir(ws), DatabaseFile)
}

// ConfigPath returns the configuration file of a workspace.
func ConfigPath(ws string) string {
	return filepath.Join(Dir(ws), ConfigFile)
}

// Load returns the workspace recorded under root. A missing, unreadable or
// blank pointer, or one naming something that is not a directory, yields
// root itself.
func Load(root string) string {
	root = canonical(root)

	data, err := os.ReadFile(PointerPath(root))
	if err != nil {
		return root
	}
	var p pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return root
	}
	if strings.TrimSpace(p.Workspace) == "" {
		return root
	}
	ws, err := Resolve(strings.TrimSpace(p.Workspace))
	if err != nil {
		return root
	}
	return ws
}

// Save records ws as the workspace of root, creating root/.qa as needed.
func Save(root, ws string) error {
	root = canonical(root)
	ws, err := expand(ws)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(Dir(root), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", DirName, err)
	}

	data, err := json.MarshalIndent(pointer{Workspace: canonical(ws)}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding workspace pointer: %w", err)
	}
	if err := os.WriteFile(PointerPath(root), data, 0o644); err != nil {
		return fmt.Errorf("writing workspace pointer: %w", err)
	}
	return nil
}

// Resolve expands a leading ~, makes path absolute and resolves symlinks.
// The result must be an existing directory.
func Resolve(path string) (string, error) {
	abs, err := expand(path)
	if err != nil {
		return "", err
	}
	abs = canonical(abs)

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("invalid workspace path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("invalid workspace path %s: %w", abs, ErrNotDirectory)
	}
	return abs, nil
}

// expand replaces a leading ~ with the home directory and makes path
// absolute.
func expand(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return abs, nil
}

// canonical makes path absolute and resolves symlinks where it exists.
func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	return path
}
