package explore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/store"
	"github.com/praetorian-inc/testweave/pkg/types"
	"github.com/praetorian-inc/testweave/pkg/workspace"
)

func occ(id string, kind types.OccurrenceKind, source, path string, line int) types.Occurrence {
	return types.Occurrence{
		ID:     id,
		Kind:   kind,
		Path:   path,
		Source: source,
		Location: types.Location{
			Source: types.SourceSpan{Start: types.SourcePoint{Line: line, Column: 1}},
		},
	}
}

// testResult has one defined, one duplicated and one undefined test case.
func testResult(ws string) *types.ScanResult {
	occs := []types.Occurrence{
		occ("TC-001", types.KindDefinition, "file", "features/login.feature", 2),
		occ("TC-001", types.KindReference, "commit", "commit:abc123", 1),
		occ("C7", types.KindDefinition, "file", "features/login.feature", 3),
		occ("C7", types.KindDefinition, "archive", "plan.docx:word/document.xml", 1),
		occ("TC-404", types.KindReference, "file", "notes.md", 1),
	}
	occs[0].Title = "valid login"
	return &types.ScanResult{
		ID:        "0f6a1c2e-8d1b-4a57-9d4e-3a2b1c0d9e8f",
		Workspace: ws,
		Documents: 4,
		Inventory: types.NewInventory(occs),
	}
}

func TestNewExploreData(t *testing.T) {
	data := newExploreData(testResult("/ws"))
	require.Len(t, data.testCases, 3)

	byID := make(map[string]*testCaseRow)
	for _, tc := range data.testCases {
		byID[tc.ID] = tc
	}

	login := byID["TC-001"]
	assert.Equal(t, statusDefined, login.Status)
	assert.Equal(t, "valid login", login.Title)
	assert.Equal(t, []string{"commit", "file"}, login.Sources)
	assert.Equal(t, []string{".feature", "commit"}, login.FileTypes)
	assert.Empty(t, login.Diagnostic)
	require.Len(t, login.Occurrences, 2)
	assert.Equal(t, types.KindDefinition, login.Occurrences[0].Kind)

	dup := byID["C7"]
	assert.Equal(t, statusDuplicate, dup.Status)
	assert.Equal(t, []string{".docx", ".feature"}, dup.FileTypes)
	assert.Equal(t, "C7 is defined 2 times", dup.Diagnostic)

	missing := byID["TC-404"]
	assert.Equal(t, statusUndefined, missing.Status)
	assert.Equal(t, "TC-404 is referenced but never defined", missing.Diagnostic)
}

func TestNewExploreData_NoInventory(t *testing.T) {
	data := newExploreData(&types.ScanResult{ID: "x"})
	assert.Empty(t, data.testCases)
}

func TestFileType(t *testing.T) {
	tests := []struct {
		occ  types.Occurrence
		want string
	}{
		{occ("C1", types.KindReference, "file", "a/b.md", 1), ".md"},
		{occ("C1", types.KindReference, "file", "Makefile", 1), "(none)"},
		{occ("C1", types.KindReference, "archive", "docs/plan.xlsx:xl/sharedStrings.xml", 1), ".xlsx"},
		{occ("C1", types.KindReference, "commit", "commit:abc", 1), "commit"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileType(tt.occ), tt.occ.Path)
	}
}

func TestLoad(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.MkdirAll(workspace.Dir(ws), 0o755))

	s, err := store.New(store.Config{Path: workspace.DatabasePath(ws)})
	require.NoError(t, err)
	_, err = s.CreateCycle("2026-01")
	require.NoError(t, err)
	result := testResult(ws)
	result.Cycle = "2026-01"
	require.NoError(t, s.SaveScan(result))
	require.NoError(t, s.Close())

	loaded, err := Load(ws, "")
	require.NoError(t, err)
	assert.Equal(t, result.ID, loaded.ID)
	assert.Len(t, loaded.Inventory.TestCases, 3)

	loaded, err = Load(ws, "2026-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-01", loaded.Cycle)

	_, err = Load(ws, "2026-02")
	assert.EqualError(t, err, `no scans recorded for cycle "2026-02"`)
}

func TestLoad_NoDatabase(t *testing.T) {
	_, err := Load(t.TempDir(), "")
	assert.ErrorContains(t, err, "run testweave scan first")
}

func TestSourceLine(t *testing.T) {
	ws := t.TempDir()
	path := filepath.Join(ws, "features", "login.feature")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("Feature: login\n  Scenario: TC-001 - valid login\n"), 0o644))

	line, ok := sourceLine(ws, occ("TC-001", types.KindDefinition, "file", "features/login.feature", 2))
	require.True(t, ok)
	assert.Equal(t, "Scenario: TC-001 - valid login", line)

	_, ok = sourceLine(ws, occ("TC-001", types.KindReference, "commit", "commit:abc", 1))
	assert.False(t, ok)

	_, ok = sourceLine(ws, occ("TC-001", types.KindReference, "file", "missing.md", 1))
	assert.False(t, ok)
}
