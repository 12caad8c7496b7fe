package enum

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// DefaultGitDepth is the number of commits visited when Config.GitDepth is
// zero.
const DefaultGitDepth = 500

// GitEnumerator yields commit messages as documents, so identifiers
// mentioned in history count as references.
type GitEnumerator struct {
	config Config
	// CommitRef optionally specifies where the walk starts (defaults to HEAD)
	CommitRef string
}

// NewGitEnumerator creates a new git enumerator.
func NewGitEnumerator(config Config) *GitEnumerator {
	return &GitEnumerator{
		config:    config,
		CommitRef: "HEAD",
	}
}

// Enumerate walks history from CommitRef, newest first, up to the
// configured depth.
func (e *GitEnumerator) Enumerate(ctx context.Context, callback func(doc *types.Document) error) error {
	repo, err := git.PlainOpenWithOptions(e.config.Root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open git repository: %w", err)
	}

	ref, err := repo.ResolveRevision(plumbing.Revision(e.CommitRef))
	if err != nil {
		return fmt.Errorf("failed to resolve ref %s: %w", e.CommitRef, err)
	}

	iter, err := repo.Log(&git.LogOptions{From: *ref, Order: git.LogOrderCommitterTime})
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	depth := e.config.GitDepth
	if depth <= 0 {
		depth = DefaultGitDepth
	}

	visited := 0
	err = iter.ForEach(func(commit *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if visited >= depth {
			return storer.ErrStop
		}
		visited++

		prov := types.CommitProvenance{
			RepoPath:  e.config.Root,
			CommitID:  commit.Hash.String(),
			Author:    commit.Author.Name,
			Timestamp: commit.Author.When,
		}
		return callback(types.NewDocument([]byte(commit.Message), prov))
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return fmt.Errorf("failed to walk history: %w", err)
	}
	return nil
}
