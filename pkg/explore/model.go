// Package explore is an interactive terminal browser for a stored scan:
// faceted filters, the test case table and the occurrences of the
// selected test case.
package explore

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// focusedPane tracks which pane has keyboard focus.
type focusedPane int

const (
	paneFilters focusedPane = iota
	paneTestCases
	paneDetails
)

// overlay tracks which modal overlay is active.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlaySource
)

// pagerFinishedMsg is sent when an external pager process exits.
type pagerFinishedMsg struct{ err error }

// Model is the root Bubble Tea model for the explore TUI.
type Model struct {
	data      *exploreData
	filters   filterPane
	testCases testCasesPane
	details   detailsPane

	focus         focusedPane
	activeOverlay overlay
	showFilters   bool

	helpContent string
	helpOffset  int

	sourceContent string
	sourceOffset  int

	width  int
	height int
	err    error
}

// New creates a Model browsing result.
func New(result *types.ScanResult) Model {
	data := newExploreData(result)

	m := Model{
		data:        data,
		filters:     newFilterPane(buildFacets(data.testCases)),
		testCases:   newTestCasesPane(data.testCases),
		details:     newDetailsPane(data.workspace),
		showFilters: true,
	}
	m.setFocus(paneTestCases)
	m.details.setTestCase(m.testCases.selected())
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("testweave explore")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pagerFinishedMsg:
		m.err = msg.err
		return m, nil

	case tea.MouseMsg:
		if m.activeOverlay != overlayNone {
			return m, nil
		}
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.handleMouseClick(msg.X, msg.Y)
		return m, nil

	case tea.KeyMsg:
		if m.activeOverlay != overlayNone {
			return m.updateOverlay(msg)
		}

		switch {
		case keyMatches(msg, defaultKeys.ForceQuit), keyMatches(msg, defaultKeys.Quit):
			return m, tea.Quit
		case keyMatches(msg, defaultKeys.ToggleHelp):
			m.activeOverlay = overlayHelp
			m.helpOffset = 0
			m.helpContent = renderHelp()
			return m, nil
		case keyMatches(msg, defaultKeys.ToggleFilters):
			m.showFilters = !m.showFilters
			if !m.showFilters && m.focus == paneFilters {
				m.setFocus(paneTestCases)
			}
			return m, nil
		case keyMatches(msg, defaultKeys.FocusFilters):
			if m.showFilters {
				m.setFocus(paneFilters)
			}
			return m, nil
		case keyMatches(msg, defaultKeys.FocusTestCases):
			m.setFocus(paneTestCases)
			return m, nil
		case keyMatches(msg, defaultKeys.FocusDetails):
			m.setFocus(paneDetails)
			return m, nil
		case keyMatches(msg, defaultKeys.OpenSource) && m.focus != paneFilters:
			return m, m.openSource()
		}

		var cmd tea.Cmd
		switch m.focus {
		case paneFilters:
			m.filters, cmd = m.filters.Update(msg)
			m.applyFilters()
		case paneTestCases:
			prev := m.testCases.selected()
			m.testCases, cmd = m.testCases.Update(msg)
			if tc := m.testCases.selected(); tc != prev {
				m.details.setTestCase(tc)
			}
		case paneDetails:
			m.details, cmd = m.details.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	offset := &m.helpOffset
	closeKey := defaultKeys.ToggleHelp
	if m.activeOverlay == overlaySource {
		offset = &m.sourceOffset
		closeKey = defaultKeys.OpenSource
	}

	switch {
	case keyMatches(msg, defaultKeys.Quit),
		keyMatches(msg, defaultKeys.ForceQuit),
		keyMatches(msg, closeKey):
		m.activeOverlay = overlayNone
	case keyMatches(msg, defaultKeys.Down):
		*offset++
	case keyMatches(msg, defaultKeys.Up):
		*offset = max(0, *offset-1)
	case keyMatches(msg, defaultKeys.PageDown):
		*offset += m.height / 2
	case keyMatches(msg, defaultKeys.PageUp):
		*offset = max(0, *offset-m.height/2)
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.activeOverlay != overlayNone {
		return m.renderOverlay()
	}

	contentHeight := m.height - 2 // status bar + padding
	tableHeight := contentHeight * 40 / 100
	detailsHeight := contentHeight - tableHeight

	dataWidth := m.width
	if m.showFilters {
		dataWidth = m.width - m.filtersWidth()
	}
	m.testCases.setSize(dataWidth, tableHeight)
	m.details.setSize(dataWidth, detailsHeight)
	dataColumn := lipgloss.JoinVertical(lipgloss.Left, m.testCases.View(), m.details.View())

	mainContent := dataColumn
	if m.showFilters {
		m.filters.setSize(m.filtersWidth(), contentHeight)
		mainContent = lipgloss.JoinHorizontal(lipgloss.Top, m.filters.View(), dataColumn)
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

func (m Model) filtersWidth() int {
	return min(m.width*30/100, 40)
}

func (m Model) renderStatusBar() string {
	scan := m.data.scan
	summary := fmt.Sprintf(" %d test cases | %d shown | scan %s", len(m.data.testCases), len(m.testCases.rows), shortID(scan.ID))
	if scan.Cycle != "" {
		summary += " | cycle " + scan.Cycle
	}
	if m.err != nil {
		summary += " | " + m.err.Error()
	}
	left := statusBarStyle.Render(summary)

	right := fmt.Sprintf("%s:%s  %s:%s  %s:%s  %s:%s  %s:%s  %s:%s",
		helpKeyStyle.Render("j/k"), helpDescStyle.Render("nav"),
		helpKeyStyle.Render("t/d"), helpDescStyle.Render("focus"),
		helpKeyStyle.Render("s"), helpDescStyle.Render("sort"),
		helpKeyStyle.Render("o"), helpDescStyle.Render("source"),
		helpKeyStyle.Render("F7"), helpDescStyle.Render("filters"),
		helpKeyStyle.Render("?"), helpDescStyle.Render("help"),
	)

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderOverlay() string {
	overlayWidth := m.width * 80 / 100
	overlayHeight := m.height * 80 / 100

	var title, content string
	switch m.activeOverlay {
	case overlayHelp:
		title = " Help (q to close) "
		content = scrollText(m.helpContent, m.helpOffset, overlayHeight-4)
	case overlaySource:
		title = " Source (q to close) "
		content = scrollText(m.sourceContent, m.sourceOffset, overlayHeight-4)
	}

	box := modalStyle.
		Width(overlayWidth - 4).
		Height(overlayHeight - 2).
		Render(content)
	overlayView := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), box)

	hPad := (m.width - lipgloss.Width(overlayView)) / 2
	vPad := (m.height - lipgloss.Height(overlayView)) / 2

	return strings.Repeat("\n", max(0, vPad)) +
		lipgloss.NewStyle().PaddingLeft(max(0, hPad)).Render(overlayView)
}

// scrollText returns at most height lines of text starting at offset.
func scrollText(text string, offset, height int) string {
	lines := strings.Split(text, "\n")
	offset = min(max(0, offset), max(0, len(lines)-1))
	end := min(offset+max(1, height), len(lines))
	return strings.Join(lines[offset:end], "\n")
}

func (m *Model) setFocus(p focusedPane) {
	m.filters.focused = p == paneFilters
	m.testCases.focused = p == paneTestCases
	m.details.focused = p == paneDetails
	m.focus = p
}

func (m *Model) handleMouseClick(x, y int) {
	contentHeight := m.height - 2
	tableHeight := contentHeight * 40 / 100
	left := 0
	if m.showFilters {
		left = m.filtersWidth()
	}

	switch {
	case y >= contentHeight:
		return
	case x < left:
		m.setFocus(paneFilters)
		row := y - 2 // title + border top
		if idx := row + m.filters.offset; row >= 0 && idx < len(m.filters.items) {
			m.filters.cursor = idx
			m.filters.toggleCurrent()
			m.applyFilters()
		}
	case y < tableHeight:
		m.setFocus(paneTestCases)
		row := y - 4 // title + border top + header + separator
		if idx := row + m.testCases.offset; row >= 0 && idx < len(m.testCases.rows) {
			m.testCases.cursor = idx
			m.details.setTestCase(m.testCases.selected())
		}
	default:
		m.setFocus(paneDetails)
	}
}

func (m *Model) applyFilters() {
	prev := m.testCases.selected()

	filtered := m.data.testCases
	if m.filters.facets.hasActiveFilters() {
		filtered = nil
		for _, tc := range m.data.testCases {
			if m.filters.facets.matches(tc) {
				filtered = append(filtered, tc)
			}
		}
	}
	m.testCases.setFilteredRows(filtered)
	m.filters.facets.updateCounts(m.data.testCases)

	if tc := m.testCases.selected(); tc != prev {
		m.details.setTestCase(tc)
	}
}

// openSource pages the file of the selected occurrence, or describes
// the occurrence in an overlay when it has no file on disk.
func (m *Model) openSource() tea.Cmd {
	o := m.details.selectedOccurrence()
	if o == nil {
		return nil
	}

	if p, ok := occurrenceFile(m.data.workspace, *o); ok {
		return openInPager(p, o.Location.Source.Start.Line)
	}

	m.sourceContent = fmt.Sprintf("%s is not a file in the workspace.\n\nSource:   %s\nPath:     %s\nLocation: %s",
		o.Path, o.Source, o.Path, o.Location.Source.Start)
	m.sourceOffset = 0
	m.activeOverlay = overlaySource
	return nil
}

func openInPager(filePath string, line int) tea.Cmd {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	var args []string
	if line > 0 && pager == "less" {
		args = append(args, fmt.Sprintf("+%d", line))
	}
	args = append(args, filePath)

	c := exec.Command(pager, args...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return pagerFinishedMsg{err: err}
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderHelp() string {
	return `TestWeave Explore - Test Case Browser

NAVIGATION
  j/k or Up/Down    Move cursor up/down
  h/l or Left/Right Previous/next occurrence (details)
  Ctrl+f/Ctrl+b     Page down/up
  g/G               Jump to top/bottom

FOCUS
  F1                Focus filters pane
  t                 Focus test case table
  d                 Focus details pane
  F7                Toggle filters pane visibility

FILTERS
  x or Space        Toggle filter value or collapse a facet
  Ctrl+r            Reset all filters

VIEWS
  s                 Cycle sort column
  S                 Reverse sort order
  o                 Open source (pager for files, overlay otherwise)
  ?                 Toggle this help screen

QUIT
  q                 Quit
  Ctrl+c            Force quit
`
}
