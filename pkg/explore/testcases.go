package explore

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// sortField defines which column to sort by.
type sortField int

const (
	sortByID sortField = iota
	sortByReferences
	sortByDefinitions
	sortByStatus
	sortFieldCount // sentinel
)

var sortFieldNames = [sortFieldCount]string{
	"ID", "References", "Definitions", "Status",
}

// testCasesPane is the top-right test case table.
type testCasesPane struct {
	rows    []*testCaseRow // filtered rows
	allRows []*testCaseRow
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
	sortBy  sortField
	sortAsc bool
}

func newTestCasesPane(rows []*testCaseRow) testCasesPane {
	tp := testCasesPane{
		allRows: rows,
		rows:    slices.Clone(rows),
		sortAsc: true,
	}
	tp.sort()
	return tp
}

func (tp *testCasesPane) setFilteredRows(rows []*testCaseRow) {
	tp.rows = slices.Clone(rows)
	tp.sort()
	if tp.cursor >= len(tp.rows) {
		tp.cursor = max(0, len(tp.rows)-1)
	}
	tp.ensureVisible()
}

func (tp testCasesPane) selected() *testCaseRow {
	if tp.cursor < 0 || tp.cursor >= len(tp.rows) {
		return nil
	}
	return tp.rows[tp.cursor]
}

func (tp testCasesPane) Update(msg tea.Msg) (testCasesPane, tea.Cmd) {
	if !tp.focused {
		return tp, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case keyMatches(msg, defaultKeys.Up):
			if tp.cursor > 0 {
				tp.cursor--
				tp.ensureVisible()
			}
		case keyMatches(msg, defaultKeys.Down):
			if tp.cursor < len(tp.rows)-1 {
				tp.cursor++
				tp.ensureVisible()
			}
		case keyMatches(msg, defaultKeys.Home):
			tp.cursor = 0
			tp.offset = 0
		case keyMatches(msg, defaultKeys.End):
			tp.cursor = max(0, len(tp.rows)-1)
			tp.ensureVisible()
		case keyMatches(msg, defaultKeys.PageDown):
			tp.cursor = max(0, min(tp.cursor+tp.visibleRows(), len(tp.rows)-1))
			tp.ensureVisible()
		case keyMatches(msg, defaultKeys.PageUp):
			tp.cursor = max(tp.cursor-tp.visibleRows(), 0)
			tp.ensureVisible()
		case keyMatches(msg, defaultKeys.SortNext):
			tp.sortBy = (tp.sortBy + 1) % sortFieldCount
			tp.sort()
		case keyMatches(msg, defaultKeys.SortReverse):
			tp.sortAsc = !tp.sortAsc
			tp.sort()
		}
	}

	return tp, nil
}

// sort orders rows by the sort column. Ties fall back to identifier order.
func (tp *testCasesPane) sort() {
	var byField func(a, b *testCaseRow) int
	switch tp.sortBy {
	case sortByReferences:
		byField = func(a, b *testCaseRow) int { return cmp.Compare(a.References, b.References) }
	case sortByDefinitions:
		byField = func(a, b *testCaseRow) int { return cmp.Compare(a.Definitions, b.Definitions) }
	case sortByStatus:
		byField = func(a, b *testCaseRow) int { return cmp.Compare(a.Status, b.Status) }
	default:
		byField = func(a, b *testCaseRow) int { return 0 }
	}

	slices.SortStableFunc(tp.rows, func(a, b *testCaseRow) int {
		c := byField(a, b)
		if c == 0 {
			c = types.CompareIDs(a.ID, b.ID)
		}
		if !tp.sortAsc {
			c = -c
		}
		return c
	})
}

func (tp testCasesPane) View() string {
	if tp.width <= 0 || tp.height <= 0 {
		return ""
	}

	contentWidth := tp.width - 4 // borders
	colID := 14
	colDefs := 5
	colRefs := 5
	colStatus := 10
	colTitle := max(10, contentWidth-colID-colDefs-colRefs-colStatus-5)

	sortIndicator := func(f sortField) string {
		if tp.sortBy != f {
			return ""
		}
		if tp.sortAsc {
			return "^"
		}
		return "v"
	}

	var b strings.Builder
	header := fmt.Sprintf(" %-*s %-*s %*s %*s %-*s",
		colID, "ID"+sortIndicator(sortByID),
		colTitle, "Title",
		colDefs, "Def"+sortIndicator(sortByDefinitions),
		colRefs, "Ref"+sortIndicator(sortByReferences),
		colStatus, "Status"+sortIndicator(sortByStatus),
	)
	b.WriteString(headerRowStyle.Width(contentWidth).Render(truncateString(header, contentWidth)))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(0, contentWidth)))
	b.WriteString("\n")

	visibleEnd := min(tp.offset+tp.visibleRows(), len(tp.rows))
	for i := tp.offset; i < visibleEnd; i++ {
		row := tp.rows[i]

		line := fmt.Sprintf(" %s %-*s %*d %*d %s",
			padRight(idStyle.Render(truncateString(row.ID, colID)), colID),
			colTitle, truncateString(row.Title, colTitle),
			colDefs, row.Definitions,
			colRefs, row.References,
			renderStatus(row.Status),
		)

		if i == tp.cursor && tp.focused {
			line = selectedRowStyle.Width(contentWidth).Render(stripAnsi(line))
		}

		b.WriteString(padRight(line, contentWidth))
		if i < visibleEnd-1 {
			b.WriteString("\n")
		}
	}
	if visibleEnd-tp.offset <= 0 && len(tp.allRows) == 0 {
		b.WriteString(mutedStyle.Render("  No test cases in this scan"))
		fillRows(&b, 1, tp.visibleRows(), contentWidth)
	} else {
		fillRows(&b, visibleEnd-tp.offset, tp.visibleRows(), contentWidth)
	}

	title := fmt.Sprintf(" Test Cases (%d/%d) [sort: %s] ", len(tp.rows), len(tp.allRows), sortFieldNames[tp.sortBy])
	return framePane(title, b.String(), tp.width, tp.height, tp.focused)
}

func (tp testCasesPane) visibleRows() int {
	return max(1, tp.height-6) // title + border + header + separator
}

func (tp *testCasesPane) ensureVisible() {
	if tp.cursor < tp.offset {
		tp.offset = tp.cursor
	}
	if tp.cursor >= tp.offset+tp.visibleRows() {
		tp.offset = tp.cursor - tp.visibleRows() + 1
	}
}

func (tp *testCasesPane) setSize(w, h int) {
	tp.width = w
	tp.height = h
}
