package enum

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// FilesystemEnumerator enumerates documents from a workspace directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// fileEntry holds metadata collected during the walk phase.
type fileEntry struct {
	path string // absolute or Root-joined path
	rel  string // slash-separated path relative to Root
}

// Enumerate walks the workspace and yields documents in path order.
// Phase 1: Walk directory tree and collect eligible file paths (fast, sequential).
// Phase 2: Read files in parallel.
// Phase 3: Hand documents to callback in walk order.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback func(doc *types.Document) error) error {
	files, err := e.collect(ctx)
	if err != nil {
		return err
	}

	docs, err := e.readAll(ctx, files)
	if err != nil {
		return err
	}

	for _, fileDocs := range docs {
		for _, doc := range fileDocs {
			if err := callback(doc); err != nil {
				return err
			}
		}
	}
	return nil
}

// Files returns the slash-separated, Root-relative paths Enumerate would
// read, in order.
func (e *FilesystemEnumerator) Files(ctx context.Context) ([]string, error) {
	files, err := e.collect(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.rel
	}
	return paths, nil
}

func (e *FilesystemEnumerator) collect(ctx context.Context) ([]fileEntry, error) {
	root := e.config.Root
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	// Load .gitignore patterns if present
	var ignore *gitignore.GitIgnore
	if gi, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		ignore = gi
	}

	var files []fileEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if !e.config.IncludeHidden && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if e.excluded(rel) || e.excluded(rel+"/") {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !e.config.IncludeHidden && isHidden(d.Name()) {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !e.config.FollowSymlinks {
				return nil
			}
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		if !e.included(rel) || e.excluded(rel) {
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}

		if e.config.MaxFileSize > 0 {
			info, err := os.Stat(path)
			if err != nil {
				return nil
			}
			if info.Size() > e.config.MaxFileSize {
				return nil
			}
		}

		files = append(files, fileEntry{path: path, rel: rel})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (e *FilesystemEnumerator) included(rel string) bool {
	if e.config.extracts(getExtension(rel)) {
		return true
	}
	return matchAny(e.config.include(), rel)
}

func (e *FilesystemEnumerator) excluded(rel string) bool {
	return matchAny(e.config.exclude(), rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		// Patterns are validated when the config is loaded, a bad one
		// simply never matches here.
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// readAll reads files in parallel and returns the documents of each file
// at the file's index.
func (e *FilesystemEnumerator) readAll(ctx context.Context, files []fileEntry) ([][]*types.Document, error) {
	docs := make([][]*types.Document, len(files))

	numReaders := max(runtime.NumCPU(), 1)
	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	idxCh := make(chan int, numReaders*2)

	// Feed indexes to readers
	g.Go(func() error {
		defer close(idxCh)
		for i := range files {
			select {
			case idxCh <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Parallel readers; each slot is written by exactly one goroutine.
	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for idx := range idxCh {
				if err := ctx.Err(); err != nil {
					return err
				}
				fileDocs, err := e.processFile(files[idx])
				if err != nil {
					return err
				}
				docs[idx] = fileDocs
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if err := origCtx.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// processFile turns one file into zero or more documents.
func (e *FilesystemEnumerator) processFile(f fileEntry) ([]*types.Document, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", f.path, err)
	}

	ext := getExtension(f.path)
	if e.config.extracts(ext) {
		extracted, err := ExtractText(f.path, content)
		if err != nil {
			// Unreadable documents are skipped like other binaries.
			return nil, nil
		}
		docs := make([]*types.Document, 0, len(extracted))
		for _, ec := range extracted {
			docs = append(docs, types.NewDocument(ec.Content, types.ArchiveProvenance{
				ArchivePath: f.rel,
				MemberPath:  ec.Name,
			}))
		}
		return docs, nil
	}

	if isBinary(content) && !hasUTF16BOM(content) {
		return nil, nil
	}
	text, err := DecodeText(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file %s: %w", f.path, err)
	}

	return []*types.Document{types.NewDocument(text, types.FileProvenance{FilePath: f.rel})}, nil
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
