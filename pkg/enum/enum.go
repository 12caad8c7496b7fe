package enum

import (
	"context"
	"slices"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// Enumerator discovers documents to scan from a source.
type Enumerator interface {
	// Enumerate yields documents from the source. A callback error stops
	// the enumeration and is returned as is.
	Enumerate(ctx context.Context, callback func(doc *types.Document) error) error
}

// DefaultInclude selects the files scanned when no include globs are set.
var DefaultInclude = []string{"**/*.feature", "**/*.md", "**/*.txt", "**/*.spec"}

// DefaultExclude is always applied on top of the configured excludes
// unless replaced.
var DefaultExclude = []string{"**/node_modules/**", "**/.git/**", "**/vendor/**"}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// Include globs, relative to Root with forward slashes. Empty means
	// DefaultInclude.
	Include []string

	// Exclude globs. Nil means DefaultExclude.
	Exclude []string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links to files.
	FollowSymlinks bool

	// Extract lists binary formats to extract text from ("pdf", "docx" or
	// "all"). Files with these extensions are matched even when the
	// include globs do not name them.
	Extract []string

	// GitDepth bounds the number of commits the git enumerator visits
	// (0 = DefaultGitDepth).
	GitDepth int
}

func (c Config) include() []string {
	if len(c.Include) == 0 {
		return DefaultInclude
	}
	return c.Include
}

func (c Config) exclude() []string {
	if c.Exclude == nil {
		return DefaultExclude
	}
	return c.Exclude
}

// extracts reports whether text should be extracted from files with the
// given extension (".pdf").
func (c Config) extracts(ext string) bool {
	if !IsExtractable(ext) {
		return false
	}
	for _, f := range c.Extract {
		if f == "all" || "."+f == ext {
			return true
		}
	}
	return false
}

// SliceEnumerator yields a fixed list of documents. It backs in-memory
// scans.
type SliceEnumerator struct {
	docs []*types.Document
}

// NewSliceEnumerator wraps docs.
func NewSliceEnumerator(docs ...*types.Document) *SliceEnumerator {
	return &SliceEnumerator{docs: slices.Clone(docs)}
}

// Enumerate yields the documents in order.
func (e *SliceEnumerator) Enumerate(ctx context.Context, callback func(doc *types.Document) error) error {
	for _, doc := range e.docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := callback(doc); err != nil {
			return err
		}
	}
	return nil
}
