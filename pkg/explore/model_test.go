package explore

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/testweave/pkg/types"
)

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "f1":
		return tea.KeyMsg{Type: tea.KeyF1}
	case "f7":
		return tea.KeyMsg{Type: tea.KeyF7}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestNew(t *testing.T) {
	m := New(testResult("/ws"))

	assert.Equal(t, paneTestCases, m.focus)
	require.Len(t, m.testCases.rows, 3)
	// identifier order: long form first
	assert.Equal(t, "TC-001", m.testCases.rows[0].ID)
	assert.Equal(t, "TC-404", m.testCases.rows[1].ID)
	assert.Equal(t, "C7", m.testCases.rows[2].ID)
	assert.Equal(t, m.testCases.rows[0], m.details.testCase)
}

func TestModel_NavigationUpdatesDetails(t *testing.T) {
	m := New(testResult("/ws"))

	m = send(t, m, keyPress("j"))
	assert.Equal(t, "TC-404", m.details.testCase.ID)

	m = send(t, m, keyPress("G"))
	assert.Equal(t, "C7", m.details.testCase.ID)

	m = send(t, m, keyPress("d"), keyPress("l"))
	assert.Equal(t, paneDetails, m.focus)
	assert.Equal(t, 1, m.details.occCursor)
	assert.Equal(t, "plan.docx:word/document.xml", m.details.selectedOccurrence().Path)

	m = send(t, m, keyPress("l"))
	assert.Equal(t, 1, m.details.occCursor, "cursor stays on the last occurrence")
}

func TestModel_Sort(t *testing.T) {
	m := New(testResult("/ws"))

	m = send(t, m, keyPress("s")) // references
	assert.Equal(t, sortByReferences, m.testCases.sortBy)
	assert.Equal(t, "C7", m.testCases.rows[0].ID, "C7 has no references")

	m = send(t, m, keyPress("S"))
	assert.False(t, m.testCases.sortAsc)
	assert.Equal(t, "C7", m.testCases.rows[2].ID)
}

func TestModel_Filters(t *testing.T) {
	m := New(testResult("/ws"))

	// Filters tree: Status, defined, duplicate, undefined, ...
	m = send(t, m, keyPress("f1"), keyPress("j"), keyPress(" "))
	assert.Equal(t, paneFilters, m.focus)
	require.Len(t, m.testCases.rows, 1)
	assert.Equal(t, "TC-001", m.testCases.rows[0].ID)
	assert.Equal(t, "TC-001", m.details.testCase.ID)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Len(t, m.testCases.rows, 3)
}

func TestModel_CollapseFacet(t *testing.T) {
	m := New(testResult("/ws"))
	before := len(m.filters.items)

	m = send(t, m, keyPress("f1"), keyPress("x"))
	assert.Len(t, m.filters.items, before-3, "status values are hidden")
	assert.Equal(t, 0, m.filters.cursor)
}

func TestModel_ToggleFiltersMovesFocus(t *testing.T) {
	m := New(testResult("/ws"))

	m = send(t, m, keyPress("f1"), keyPress("f7"))
	assert.False(t, m.showFilters)
	assert.Equal(t, paneTestCases, m.focus)
}

func TestModel_HelpOverlay(t *testing.T) {
	m := New(testResult("/ws"))
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40}, keyPress("?"))

	assert.Equal(t, overlayHelp, m.activeOverlay)
	assert.Contains(t, m.View(), "TestWeave Explore")

	m = send(t, m, keyPress("j"), keyPress("j"), keyPress("k"))
	assert.Equal(t, overlayHelp, m.activeOverlay)
	assert.Equal(t, 1, m.helpOffset)

	m = send(t, m, keyPress("q"))
	assert.Equal(t, overlayNone, m.activeOverlay)
	assert.Equal(t, paneTestCases, m.focus)
}

func TestModel_SourceOverlayClose(t *testing.T) {
	m := New(testResult("/ws"))

	m = send(t, m, keyPress("d"), keyPress("l"), keyPress("o"), keyPress("j"))
	assert.Equal(t, overlaySource, m.activeOverlay)
	assert.Equal(t, 1, m.sourceOffset)

	m = send(t, m, keyPress("o"))
	assert.Equal(t, overlayNone, m.activeOverlay)
	assert.Equal(t, paneDetails, m.focus)
}

func TestModel_SourceOverlayForCommit(t *testing.T) {
	m := New(testResult("/ws"))

	m = send(t, m, keyPress("d"), keyPress("l"), keyPress("o"))
	assert.Equal(t, overlaySource, m.activeOverlay)
	assert.Contains(t, m.sourceContent, "commit:abc123 is not a file in the workspace")
}

func TestModel_Quit(t *testing.T) {
	m := New(testResult("/ws"))

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_View(t *testing.T) {
	m := New(testResult("/ws"))
	assert.Equal(t, "Loading...", m.View())

	m = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	view := m.View()
	assert.Contains(t, view, "Test Cases (3/3)")
	assert.Contains(t, view, "TC-001")
	assert.Contains(t, view, "valid login")
	assert.Contains(t, view, "Filters")
	assert.Contains(t, view, "3 test cases")
}

func TestModel_ViewEmptyScan(t *testing.T) {
	m := New(&types.ScanResult{ID: "empty", Inventory: types.NewInventory(nil)})
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Contains(t, m.View(), "No test cases in this scan")
}
