package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/types"
)

func TestRunCycleList_Empty(t *testing.T) {
	newWorkspace(t, nil)
	cmd, out, _ := testCmd()

	require.NoError(t, runCycleList(cmd, nil))
	assert.Equal(t, "No cycles.\n", out.String())
}

func TestRunCycleCreate(t *testing.T) {
	newWorkspace(t, nil)
	cmd, out, _ := testCmd()

	require.NoError(t, runCycleCreate(cmd, []string{"2026-01"}))
	require.NoError(t, runCycleCreate(cmd, []string{"2026-02"}))
	assert.Equal(t, "Created cycle 2026-01\nCreated cycle 2026-02\n", out.String())

	out.Reset()
	cycleJSON = true
	require.NoError(t, runCycleList(cmd, nil))

	var cycles []types.Cycle
	require.NoError(t, json.Unmarshal(out.Bytes(), &cycles))
	require.Len(t, cycles, 2)
	assert.Equal(t, "2026-01", cycles[0].Name)
	assert.Equal(t, "2026-02", cycles[1].Name)
	assert.NotEmpty(t, cycles[0].ID)
}

func TestRunCycleCreate_Duplicate(t *testing.T) {
	newWorkspace(t, nil)
	cmd, _, _ := testCmd()

	require.NoError(t, runCycleCreate(cmd, []string{"sprint-4"}))
	err := runCycleCreate(cmd, []string{"sprint-4"})
	assert.EqualError(t, err, `cycle "sprint-4" already exists`)
}

func TestRunCycleCreate_InvalidName(t *testing.T) {
	newWorkspace(t, nil)
	cmd, _, _ := testCmd()

	tests := []string{"", "has space", "semi;colon", string(make([]byte, 65))}
	for _, name := range tests {
		err := runCycleCreate(cmd, []string{name})
		assert.ErrorContains(t, err, "invalid cycle name", "name %q", name)
	}
}
