package main

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/sarif"
	"github.com/praetorian-inc/testweave/pkg/store"
	"github.com/praetorian-inc/testweave/pkg/types"
	"github.com/praetorian-inc/testweave/pkg/workspace"
)

func TestRunScan(t *testing.T) {
	root := newWorkspace(t, suiteFiles)
	cmd, out, _ := testCmd()

	require.NoError(t, runScan(cmd, nil))

	output := out.String()
	assert.Contains(t, output, "Results stored in: "+workspace.DatabasePath(root))
	assert.Contains(t, output, "Scan complete: 3 documents, 3 test cases, 2 diagnostics")
	assert.Contains(t, output, "TC-001  valid login")
	assert.Contains(t, output, "defined    features/login.feature:2:13")
	assert.Contains(t, output, "referenced notes.md:1:24")
	assert.Contains(t, output, "undefined-reference: TC-404 is referenced but never defined")
	assert.Contains(t, output, "duplicate-definition: C7 is defined 2 times")

	s, err := store.New(store.Config{Path: workspace.DatabasePath(root)})
	require.NoError(t, err)
	defer s.Close()
	latest, err := s.LatestScan("")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Inventory.Stats.TestCases)
}

func TestRunScan_JSON(t *testing.T) {
	newWorkspace(t, suiteFiles)
	scanOutputFormat = "json"
	cmd, out, errOut := testCmd()

	require.NoError(t, runScan(cmd, nil))

	var result types.ScanResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result), "stdout must be pure JSON")
	assert.Equal(t, 3, result.Documents)
	assert.Contains(t, errOut.String(), "Scan complete")
}

func TestRunScan_SARIF(t *testing.T) {
	newWorkspace(t, suiteFiles)
	scanOutputFormat = "sarif"
	scanNoStore = true
	cmd, out, _ := testCmd()

	require.NoError(t, runScan(cmd, nil))

	var report sarif.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, sarif.Version, report.Version)
	// 3 definitions, 2 duplicate warnings, 1 undefined reference
	assert.Len(t, report.Runs[0].Results, 6)
}

func TestRunScan_NoStore(t *testing.T) {
	root := newWorkspace(t, suiteFiles)
	scanNoStore = true
	cmd, out, _ := testCmd()

	require.NoError(t, runScan(cmd, nil))
	assert.NotContains(t, out.String(), "Results stored in")
	assert.NoFileExists(t, workspace.DatabasePath(root))
}

func TestRunScan_Cycle(t *testing.T) {
	root := newWorkspace(t, suiteFiles)

	cmd, _, _ := testCmd()
	require.NoError(t, runCycleCreate(cmd, []string{"2026-01"}))

	scanCycle = "2026-01"
	require.NoError(t, runScan(cmd, nil))
	scanCycle = ""
	require.NoError(t, runScan(cmd, nil))

	s, err := store.New(store.Config{Path: workspace.DatabasePath(root)})
	require.NoError(t, err)
	defer s.Close()

	inCycle, err := s.LatestScan("2026-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-01", inCycle.Cycle)

	latest, err := s.LatestScan("")
	require.NoError(t, err)
	assert.Empty(t, latest.Cycle)
	assert.NotEqual(t, inCycle.ID, latest.ID)
}

func TestRunScan_UnknownCycle(t *testing.T) {
	newWorkspace(t, suiteFiles)
	scanCycle = "missing"
	cmd, _, _ := testCmd()

	err := runScan(cmd, nil)
	assert.ErrorContains(t, err, `cycle "missing" does not exist`)
}

func TestRunScan_CycleWithoutStore(t *testing.T) {
	newWorkspace(t, suiteFiles)
	scanCycle = "2026-01"
	scanNoStore = true
	cmd, _, _ := testCmd()

	assert.Error(t, runScan(cmd, nil))
}

func TestRunScan_InvalidRoot(t *testing.T) {
	resetFlags("/nonexistent/path")
	cmd, _, _ := testCmd()

	assert.Error(t, runScan(cmd, nil), "should error on nonexistent root")
}

func TestRunScan_UnknownFormat(t *testing.T) {
	newWorkspace(t, nil)
	scanOutputFormat = "xml"
	cmd, _, _ := testCmd()

	assert.ErrorContains(t, runScan(cmd, nil), "unknown output format: xml")
}

func TestRunScan_FollowsWorkspacePointer(t *testing.T) {
	root := newWorkspace(t, map[string]string{
		"project/plan.md": "# TC-050 - pointed at\n",
	})
	require.NoError(t, workspace.Save(root, root+"/project"))
	scanNoStore = true
	cmd, out, _ := testCmd()

	require.NoError(t, runScan(cmd, nil))
	assert.Contains(t, out.String(), "TC-050  pointed at")

	_, err := os.Stat(workspace.DatabasePath(root))
	assert.True(t, os.IsNotExist(err))
}
