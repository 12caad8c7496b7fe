package explore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/praetorian-inc/testweave/pkg/store"
	"github.com/praetorian-inc/testweave/pkg/types"
	"github.com/praetorian-inc/testweave/pkg/workspace"
)

// Test case statuses shown in the table and the status facet.
const (
	statusDefined   = "defined"
	statusUndefined = "undefined"
	statusDuplicate = "duplicate"
)

// testCaseRow is the view model of one test case.
type testCaseRow struct {
	ID          string
	Title       string
	Status      string
	Definitions int
	References  int
	Sources     []string // provenance kinds, sorted and unique
	FileTypes   []string // path extensions, sorted and unique
	Diagnostic  string
	Occurrences []types.Occurrence // definitions first
}

// exploreData is the scan being browsed.
type exploreData struct {
	workspace string
	scan      *types.ScanResult
	testCases []*testCaseRow
}

// Load reads the latest scan of ws, restricted to cycle unless it is
// empty.
func Load(ws, cycle string) (*types.ScanResult, error) {
	dbPath := workspace.DatabasePath(ws)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no scans stored in %s, run testweave scan first", ws)
	}

	s, err := store.New(store.Config{Path: dbPath})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	result, err := s.LatestScan(cycle)
	if errors.Is(err, store.ErrNotFound) {
		if cycle != "" {
			return nil, fmt.Errorf("no scans recorded for cycle %q", cycle)
		}
		return nil, fmt.Errorf("no scans stored in %s, run testweave scan first", ws)
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest scan: %w", err)
	}
	return result, nil
}

func newExploreData(result *types.ScanResult) *exploreData {
	d := &exploreData{workspace: result.Workspace, scan: result}
	if result.Inventory == nil {
		return d
	}

	messages := make(map[string]string, len(result.Inventory.Diagnostics))
	for _, diag := range result.Inventory.Diagnostics {
		messages[diag.TestCase] = diag.Message
	}

	d.testCases = make([]*testCaseRow, 0, len(result.Inventory.TestCases))
	for _, tc := range result.Inventory.TestCases {
		d.testCases = append(d.testCases, buildTestCaseRow(tc, messages[tc.ID]))
	}
	return d
}

func buildTestCaseRow(tc *types.TestCase, diagnostic string) *testCaseRow {
	row := &testCaseRow{
		ID:          tc.ID,
		Title:       tc.Title,
		Definitions: len(tc.Definitions),
		References:  len(tc.References),
		Diagnostic:  diagnostic,
		Occurrences: slices.Concat(tc.Definitions, tc.References),
	}

	switch {
	case row.Definitions > 1:
		row.Status = statusDuplicate
	case row.Definitions == 1:
		row.Status = statusDefined
	default:
		row.Status = statusUndefined
	}

	for _, o := range row.Occurrences {
		row.Sources = append(row.Sources, o.Source)
		row.FileTypes = append(row.FileTypes, fileType(o))
	}
	slices.Sort(row.Sources)
	row.Sources = slices.Compact(row.Sources)
	slices.Sort(row.FileTypes)
	row.FileTypes = slices.Compact(row.FileTypes)

	return row
}

// fileType is the extension of the document an occurrence sits in. Commit
// messages have none.
func fileType(o types.Occurrence) string {
	if o.Source == "commit" {
		return "commit"
	}
	p := o.Path
	if o.Source == "archive" {
		// archive paths end in ":member"
		if i := strings.LastIndexByte(p, ':'); i > 0 {
			p = p[:i]
		}
	}
	if ext := path.Ext(p); ext != "" {
		return ext
	}
	return "(none)"
}
