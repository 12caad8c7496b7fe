// Package testweave finds test case identifiers (TC-IDs) in a workspace
// and builds an inventory of where each test case is defined and
// referenced.
//
// # Basic Usage
//
// Scan a directory with the defaults, or with its .qa/testweave.yaml when
// present:
//
//	scanner := testweave.NewScanner()
//	result, err := scanner.Scan(ctx, "/path/to/workspace")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, tc := range result.Inventory.TestCases {
//	    fmt.Printf("%s: %d definitions, %d references\n", tc.ID, len(tc.Definitions), len(tc.References))
//	}
//
// # Single Documents
//
// ScanString classifies the identifiers of one in-memory document:
//
//	occs := scanner.ScanString("Scenario: TC-001 - valid login")
//	fmt.Println(occs[0].Kind, occs[0].Title) // definition valid login
package testweave

import (
	"context"
	"log/slog"

	"github.com/praetorian-inc/testweave/pkg/scanner"
	"github.com/praetorian-inc/testweave/pkg/tcid"
	"github.com/praetorian-inc/testweave/pkg/types"
	"github.com/praetorian-inc/testweave/pkg/workspace"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/testweave" without subpackages.
type (
	// Match is one identifier found in text, with byte offsets.
	Match = tcid.Match

	// Occurrence is one classified identifier in one document.
	Occurrence = types.Occurrence

	// TestCase aggregates every occurrence of one identifier.
	TestCase = types.TestCase

	// Inventory is the test case index built from a scan.
	Inventory = types.Inventory

	// Diagnostic reports a duplicate definition or undefined reference.
	Diagnostic = types.Diagnostic

	// ScanResult is a finished scan.
	ScanResult = types.ScanResult

	// Config is the workspace configuration.
	Config = workspace.Config
)

// Re-export occurrence kinds.
const (
	KindDefinition = types.KindDefinition
	KindReference  = types.KindReference
)

// Scanner scans workspaces and documents for test cases.
type Scanner struct {
	config *scannerConfig
}

type scannerConfig struct {
	workspace *workspace.Config // nil loads the scanned workspace's file
	logger    *slog.Logger
	git       bool
}

// Option configures a Scanner.
type Option func(*scannerConfig)

// WithConfig uses cfg instead of the configuration file of the scanned
// workspace.
func WithConfig(cfg Config) Option {
	return func(c *scannerConfig) {
		c.workspace = &cfg
	}
}

// WithLogger sends progress records to logger instead of slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *scannerConfig) {
		c.logger = logger
	}
}

// WithGit also scans the commit messages of the repository containing the
// workspace.
func WithGit() Option {
	return func(c *scannerConfig) {
		c.git = true
	}
}

// NewScanner creates a Scanner with the given options.
func NewScanner(opts ...Option) *Scanner {
	config := &scannerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(config)
	}
	return &Scanner{config: config}
}

// Scan enumerates the files under root and builds their inventory.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	ws, err := workspace.Resolve(root)
	if err != nil {
		return nil, err
	}

	cfg, err := s.workspaceConfig(ws)
	if err != nil {
		return nil, err
	}

	core := scanner.NewCore(scanner.Options{Headings: cfg.Headings, Logger: s.config.logger})
	return core.ScanWorkspace(ctx, cfg.EnumConfig(ws), s.config.git || cfg.Git)
}

// ScanString returns the occurrences in text, in text order.
func (s *Scanner) ScanString(text string) []Occurrence {
	var headings []string
	if s.config.workspace != nil {
		headings = s.config.workspace.Headings
	}
	core := scanner.NewCore(scanner.Options{Headings: headings, Logger: s.config.logger})
	doc := types.NewDocument([]byte(text), types.FileProvenance{})
	return core.ExtractOccurrences(doc)
}

func (s *Scanner) workspaceConfig(ws string) (Config, error) {
	if s.config.workspace == nil {
		return workspace.LoadConfig(ws)
	}
	cfg := *s.config.workspace
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FindAll returns every identifier in text with its byte offsets.
func FindAll(text string) []Match {
	return tcid.FindWithPositions(text)
}

// IsValid reports whether candidate, as written, is an identifier.
func IsValid(candidate string) bool {
	return tcid.IsValid(candidate)
}
