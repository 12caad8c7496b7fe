package enum

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/types"
)

func fileDoc(path, content string) *types.Document {
	return types.NewDocument([]byte(content), types.FileProvenance{FilePath: path})
}

func collectPaths(t *testing.T, ctx context.Context, e Enumerator) ([]string, error) {
	t.Helper()
	var paths []string
	err := e.Enumerate(ctx, func(doc *types.Document) error {
		paths = append(paths, doc.Path())
		return nil
	})
	return paths, err
}

func TestCombinedEnumerator_Empty(t *testing.T) {
	paths, err := collectPaths(t, context.Background(), NewCombinedEnumerator())
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestCombinedEnumerator_Sequential(t *testing.T) {
	c := NewCombinedEnumerator(
		NewSliceEnumerator(fileDoc("a.md", "C1"), fileDoc("b.md", "C2")),
		NewSliceEnumerator(fileDoc("c.md", "C3")),
	)

	paths, err := collectPaths(t, context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md", "c.md"}, paths)
}

func TestCombinedEnumerator_Deduplicates(t *testing.T) {
	c := NewCombinedEnumerator(
		NewSliceEnumerator(fileDoc("a.md", "C1"), fileDoc("b.md", "C1")),
		NewSliceEnumerator(fileDoc("a.md", "C1"), fileDoc("a.md", "C1 changed")),
	)

	paths, err := collectPaths(t, context.Background(), c)
	require.NoError(t, err)
	// Same content at another path is a separate document.
	assert.Equal(t, []string{"a.md", "b.md", "a.md"}, paths)
}

func TestCombinedEnumerator_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collectPaths(t, ctx, NewCombinedEnumerator(NewSliceEnumerator(fileDoc("a.md", "C1"))))
	assert.ErrorIs(t, err, context.Canceled)
}
