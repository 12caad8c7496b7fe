package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every command flag to its default and points --root
// at root.
func resetFlags(root string) {
	rootDir = root
	verbose, quiet, logFormat = false, false, "text"

	scanOutputFormat, scanGit, scanNoStore, scanCycle, scanColor = "human", false, false, "", "never"
	extractJSON, checkJSON = false, false
	cycleJSON = false
	reportCycle, reportOut, reportFormat, reportColor = "", "", "human", "never"
	serveHost, servePort, serveStdio, serveWatch, serveNoStore = "127.0.0.1", 7341, false, false, false
	initForce = false
	exploreCycle = ""
}

// newWorkspace creates a workspace holding files and resets the flags to
// use it.
func newWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	resetFlags(root)
	return root
}

// testCmd returns a command whose output lands in the returned buffers.
func testCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

var suiteFiles = map[string]string{
	"features/login.feature":  "Feature: login\n  Scenario: TC-001 - valid login\n  Scenario: C7 - lockout\n",
	"features/legacy.feature": "Scenario: C7 - lockout (old)\n",
	"notes.md":                "Regression run covered TC-001 and TC-404.\n",
}
