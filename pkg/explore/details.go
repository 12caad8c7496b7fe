package explore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// detailsPane shows the occurrences of the selected test case.
type detailsPane struct {
	workspace string
	testCase  *testCaseRow
	occCursor int
	width     int
	height    int
	offset    int // scroll offset for content
	focused   bool
}

func newDetailsPane(workspace string) detailsPane {
	return detailsPane{workspace: workspace}
}

func (dp *detailsPane) setTestCase(tc *testCaseRow) {
	dp.testCase = tc
	dp.occCursor = 0
	dp.offset = 0
}

func (dp detailsPane) selectedOccurrence() *types.Occurrence {
	if dp.testCase == nil || dp.occCursor < 0 || dp.occCursor >= len(dp.testCase.Occurrences) {
		return nil
	}
	return &dp.testCase.Occurrences[dp.occCursor]
}

func (dp detailsPane) Update(msg tea.Msg) (detailsPane, tea.Cmd) {
	if !dp.focused {
		return dp, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case keyMatches(msg, defaultKeys.Up):
			if dp.offset > 0 {
				dp.offset--
			}
		case keyMatches(msg, defaultKeys.Down):
			dp.offset++
		case keyMatches(msg, defaultKeys.Left):
			if dp.occCursor > 0 {
				dp.occCursor--
				dp.offset = 0
			}
		case keyMatches(msg, defaultKeys.Right):
			if dp.testCase != nil && dp.occCursor < len(dp.testCase.Occurrences)-1 {
				dp.occCursor++
				dp.offset = 0
			}
		case keyMatches(msg, defaultKeys.Home):
			dp.offset = 0
		case keyMatches(msg, defaultKeys.PageDown):
			dp.offset += dp.visibleRows()
		case keyMatches(msg, defaultKeys.PageUp):
			dp.offset = max(0, dp.offset-dp.visibleRows())
		}
	}

	return dp, nil
}

// lines renders the pane body before scrolling.
func (dp detailsPane) lines() []string {
	if dp.testCase == nil {
		return []string{"  No test case selected"}
	}
	tc := dp.testCase

	field := func(label, value string) string {
		return fmt.Sprintf("  %s %s", fieldLabelStyle.Render(label), fieldValueStyle.Render(value))
	}

	lines := []string{fmt.Sprintf("  %s %s", fieldLabelStyle.Render("Test case:"), idStyle.Render(tc.ID))}
	if tc.Title != "" {
		lines = append(lines, field("Title:", tc.Title))
	}
	lines = append(lines, fmt.Sprintf("  %s %s", fieldLabelStyle.Render("Status:"), renderStatus(tc.Status)))
	if tc.Diagnostic != "" {
		lines = append(lines, fmt.Sprintf("  %s %s", fieldLabelStyle.Render("Diagnostic:"), undefinedStyle.Render(tc.Diagnostic)))
	}
	lines = append(lines, field("Occurrences:", fmt.Sprintf("%d definitions, %d references", tc.Definitions, tc.References)))
	lines = append(lines, "")

	o := dp.selectedOccurrence()
	if o == nil {
		return append(lines, "  No occurrences")
	}

	lines = append(lines, "  "+headerRowStyle.Render(fmt.Sprintf("Occurrence %d/%d (h/l to navigate)", dp.occCursor+1, len(tc.Occurrences))))
	lines = append(lines, "  "+strings.Repeat("─", max(0, min(40, dp.width-8))))
	lines = append(lines, field("Kind:", string(o.Kind)))
	lines = append(lines, field("Path:", o.Path))
	lines = append(lines, field("Source:", o.Source))
	lines = append(lines, fmt.Sprintf("  %s %d:%d - %d:%d (bytes %d-%d)",
		fieldLabelStyle.Render("Location:"),
		o.Location.Source.Start.Line, o.Location.Source.Start.Column,
		o.Location.Source.End.Line, o.Location.Source.End.Column,
		o.Location.Offset.Start, o.Location.Offset.End))
	if o.Title != "" {
		lines = append(lines, field("Heading:", o.Title))
	}

	if text, ok := sourceLine(dp.workspace, *o); ok {
		lines = append(lines, "", "  "+fieldLabelStyle.Render("Line:"), "    "+mutedStyle.Render(text))
	}
	return lines
}

func (dp detailsPane) View() string {
	if dp.width <= 0 || dp.height <= 0 {
		return ""
	}
	contentWidth := dp.width - 4

	lines := dp.lines()
	offset := min(dp.offset, max(0, len(lines)-1))
	visible := lines[offset:]
	if len(visible) > dp.visibleRows() {
		visible = visible[:dp.visibleRows()]
	}

	var b strings.Builder
	for i, line := range visible {
		b.WriteString(padRight(truncateString(line, contentWidth), contentWidth))
		if i < len(visible)-1 {
			b.WriteString("\n")
		}
	}
	fillRows(&b, len(visible), dp.visibleRows(), contentWidth)

	return framePane(" Details ", b.String(), dp.width, dp.height, dp.focused)
}

func (dp detailsPane) visibleRows() int {
	return max(1, dp.height-4)
}

func (dp *detailsPane) setSize(w, h int) {
	dp.width = w
	dp.height = h
}

// occurrenceFile returns the file on disk holding o. Only plain files
// have one.
func occurrenceFile(workspace string, o types.Occurrence) (string, bool) {
	if o.Source != "file" || workspace == "" {
		return "", false
	}
	p := filepath.Join(workspace, filepath.FromSlash(o.Path))
	if info, err := os.Stat(p); err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}

// sourceLine reads the line o starts on, trimmed.
func sourceLine(workspace string, o types.Occurrence) (string, bool) {
	p, ok := occurrenceFile(workspace, o)
	if !ok {
		return "", false
	}
	f, err := os.Open(p)
	if err != nil {
		return "", false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		if n == o.Location.Source.Start.Line {
			return strings.TrimSpace(sc.Text()), true
		}
	}
	return "", false
}
