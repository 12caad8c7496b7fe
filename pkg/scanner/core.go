package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/praetorian-inc/testweave/pkg/enum"
	"github.com/praetorian-inc/testweave/pkg/prefilter"
	"github.com/praetorian-inc/testweave/pkg/types"
)

// Core turns enumerated documents into a test case inventory. It holds no
// per-scan state and is safe for concurrent use.
type Core struct {
	headings *prefilter.Prefilter
	logger   *slog.Logger
}

// NewCore creates a Core.
func NewCore(opts Options) *Core {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Core{
		headings: prefilter.New(opts.Headings),
		logger:   logger,
	}
}

// ExtractOccurrences finds the occurrences in one document.
func (c *Core) ExtractOccurrences(doc *types.Document) []types.Occurrence {
	return ExtractOccurrences(doc, c.headings)
}

// Scan reads every document from e and builds the inventory. workspace is
// recorded in the result.
func (c *Core) Scan(ctx context.Context, workspace string, e enum.Enumerator) (*types.ScanResult, error) {
	result := &types.ScanResult{
		ID:        uuid.NewString(),
		Workspace: workspace,
		StartedAt: time.Now().UTC(),
	}
	c.logger.Info("scan started", "scan", result.ID, "workspace", workspace)

	var occs []types.Occurrence
	err := e.Enumerate(ctx, func(doc *types.Document) error {
		found := c.ExtractOccurrences(doc)
		c.logger.Debug("document scanned", "path", doc.Path(), "source", doc.Source(), "occurrences", len(found))
		occs = append(occs, found...)
		result.Documents++
		return nil
	})
	if err != nil {
		c.logger.Error("scan failed", "scan", result.ID, "error", err)
		return nil, fmt.Errorf("scanning %s: %w", workspace, err)
	}

	result.Inventory = types.NewInventory(occs)
	result.FinishedAt = time.Now().UTC()

	c.logger.Info("scan finished",
		"scan", result.ID,
		"documents", result.Documents,
		"testcases", result.Inventory.Stats.TestCases,
		"diagnostics", len(result.Inventory.Diagnostics),
		"duration", result.Duration(),
	)
	return result, nil
}

// ScanContent scans in-memory documents. Items keep their order and an
// item's Source becomes the occurrence path.
func (c *Core) ScanContent(ctx context.Context, items []ContentItem) (*types.ScanResult, error) {
	docs := make([]*types.Document, 0, len(items))
	for _, item := range items {
		docs = append(docs, types.NewDocument([]byte(item.Content), types.FileProvenance{FilePath: item.Source}))
	}
	return c.Scan(ctx, "", enum.NewSliceEnumerator(docs...))
}

// ScanWorkspace scans the files under cfg.Root and, when withGit is set,
// the commit messages of the repository containing it.
func (c *Core) ScanWorkspace(ctx context.Context, cfg enum.Config, withGit bool) (*types.ScanResult, error) {
	enumerators := []enum.Enumerator{enum.NewFilesystemEnumerator(cfg)}
	if withGit {
		enumerators = append(enumerators, enum.NewGitEnumerator(cfg))
	}
	return c.Scan(ctx, cfg.Root, enum.NewCombinedEnumerator(enumerators...))
}
