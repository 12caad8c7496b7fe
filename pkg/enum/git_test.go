package enum

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// setupTestGitRepo creates a repository with one commit per message,
// oldest first.
func setupTestGitRepo(t *testing.T, messages ...string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	when := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, msg := range messages {
		name := filepath.Join(dir, "log.txt")
		require.NoError(t, os.WriteFile(name, []byte(msg), 0644))
		_, err := wt.Add("log.txt")
		require.NoError(t, err)

		sig := &object.Signature{Name: "Test User", Email: "test@example.com", When: when.Add(time.Duration(i) * time.Minute)}
		_, err = wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
	}
	return dir
}

func TestGitEnumerator(t *testing.T) {
	dir := setupTestGitRepo(t, "Add login scenario TC-001", "Fix C02 flakiness", "Refactor steps")

	var docs []*types.Document
	err := NewGitEnumerator(Config{Root: dir}).Enumerate(context.Background(), func(doc *types.Document) error {
		docs = append(docs, doc)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "Refactor steps", strings.TrimSpace(string(docs[0].Content)))
	assert.Equal(t, "Fix C02 flakiness", strings.TrimSpace(string(docs[1].Content)))
	assert.Equal(t, "Add login scenario TC-001", strings.TrimSpace(string(docs[2].Content)))

	for _, doc := range docs {
		assert.Equal(t, "commit", doc.Source())
		prov, ok := doc.Provenance.(types.CommitProvenance)
		require.True(t, ok)
		assert.Equal(t, "Test User", prov.Author)
		assert.Len(t, prov.CommitID, 40)
		assert.Equal(t, "commit:"+prov.CommitID[:12], doc.Path())
	}
}

func TestGitEnumerator_Depth(t *testing.T) {
	dir := setupTestGitRepo(t, "one", "two", "three")

	var msgs []string
	err := NewGitEnumerator(Config{Root: dir, GitDepth: 2}).Enumerate(context.Background(), func(doc *types.Document) error {
		msgs = append(msgs, strings.TrimSpace(string(doc.Content)))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "two"}, msgs)
}

func TestGitEnumerator_CallbackError(t *testing.T) {
	dir := setupTestGitRepo(t, "one", "two")
	stop := errors.New("stop")

	err := NewGitEnumerator(Config{Root: dir}).Enumerate(context.Background(), func(doc *types.Document) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

func TestGitEnumerator_NotARepository(t *testing.T) {
	err := NewGitEnumerator(Config{Root: t.TempDir()}).Enumerate(context.Background(), func(doc *types.Document) error {
		return nil
	})
	assert.ErrorContains(t, err, "failed to open git repository")
}
