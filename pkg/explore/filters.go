package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// filterPane is the left-side faceted search tree.
type filterPane struct {
	facets   *facetState
	cursor   int          // flat index across all facet items
	items    []filterItem // flattened tree items
	expanded map[facetID]bool
	width    int
	height   int
	offset   int // scroll offset
	focused  bool
}

type filterItemKind int

const (
	filterItemCategory filterItemKind = iota
	filterItemValue
)

type filterItem struct {
	Kind     filterItemKind
	Label    string
	FacetID  facetID
	ValueIdx int // index into facets.Values[FacetID]
}

func newFilterPane(facets *facetState) filterPane {
	fp := filterPane{
		facets:   facets,
		expanded: make(map[facetID]bool),
	}
	for _, def := range facetDefs {
		fp.expanded[def.ID] = true
	}
	fp.rebuildItems()
	return fp
}

// rebuildItems flattens the facet tree into a list of items.
func (fp *filterPane) rebuildItems() {
	fp.items = nil
	for _, def := range facetDefs {
		values := fp.facets.Values[def.ID]
		if len(values) == 0 {
			continue
		}
		fp.items = append(fp.items, filterItem{
			Kind:    filterItemCategory,
			Label:   def.Label,
			FacetID: def.ID,
		})
		if !fp.expanded[def.ID] {
			continue
		}
		for i, v := range values {
			fp.items = append(fp.items, filterItem{
				Kind:     filterItemValue,
				Label:    v.Value,
				FacetID:  def.ID,
				ValueIdx: i,
			})
		}
	}
}

func (fp filterPane) Update(msg tea.Msg) (filterPane, tea.Cmd) {
	if !fp.focused {
		return fp, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case keyMatches(msg, defaultKeys.Up):
			if fp.cursor > 0 {
				fp.cursor--
				fp.ensureVisible()
			}
		case keyMatches(msg, defaultKeys.Down):
			if fp.cursor < len(fp.items)-1 {
				fp.cursor++
				fp.ensureVisible()
			}
		case keyMatches(msg, defaultKeys.Home):
			fp.cursor = 0
			fp.offset = 0
		case keyMatches(msg, defaultKeys.End):
			fp.cursor = max(0, len(fp.items)-1)
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.PageDown):
			fp.cursor = max(0, min(fp.cursor+fp.visibleRows(), len(fp.items)-1))
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.PageUp):
			fp.cursor = max(fp.cursor-fp.visibleRows(), 0)
			fp.ensureVisible()
		case keyMatches(msg, defaultKeys.ToggleFilter):
			fp.toggleCurrent()
		case keyMatches(msg, defaultKeys.ResetFilter):
			fp.facets.resetAll()
		}
	}

	return fp, nil
}

// toggleCurrent collapses or expands a category, or selects a value.
func (fp *filterPane) toggleCurrent() {
	if fp.cursor < 0 || fp.cursor >= len(fp.items) {
		return
	}
	item := fp.items[fp.cursor]
	switch item.Kind {
	case filterItemCategory:
		fp.expanded[item.FacetID] = !fp.expanded[item.FacetID]
		fp.rebuildItems()
		for i, it := range fp.items {
			if it.Kind == filterItemCategory && it.FacetID == item.FacetID {
				fp.cursor = i
				break
			}
		}
	case filterItemValue:
		values := fp.facets.Values[item.FacetID]
		if item.ValueIdx < len(values) {
			values[item.ValueIdx].Selected = !values[item.ValueIdx].Selected
		}
	}
}

func (fp filterPane) View() string {
	if fp.width <= 0 || fp.height <= 0 {
		return ""
	}

	var b strings.Builder
	visibleEnd := min(fp.offset+fp.visibleRows(), len(fp.items))

	for i := fp.offset; i < visibleEnd; i++ {
		item := fp.items[i]

		var line string
		switch item.Kind {
		case filterItemCategory:
			arrow := "▸"
			if fp.expanded[item.FacetID] {
				arrow = "▾"
			}
			line = facetLabelStyle.Render(fmt.Sprintf(" %s %s", arrow, item.Label))
		case filterItemValue:
			v := fp.facets.Values[item.FacetID][item.ValueIdx]
			label := truncateString(item.Label, fp.width-12)
			countStr := facetCountStyle.Render(fmt.Sprintf("(%d)", v.Count))
			if v.Selected {
				line = fmt.Sprintf("   %s %s %s", facetSelectedStyle.Render("+"), facetSelectedStyle.Render(label), countStr)
			} else {
				line = fmt.Sprintf("     %s %s", label, countStr)
			}
		}

		if i == fp.cursor && fp.focused {
			line = selectedRowStyle.Width(fp.width - 2).Render(stripAnsi(line))
		}

		b.WriteString(padRight(line, fp.width-2))
		if i < visibleEnd-1 {
			b.WriteString("\n")
		}
	}
	fillRows(&b, visibleEnd-fp.offset, fp.visibleRows(), fp.width-2)

	return framePane(" Filters ", b.String(), fp.width, fp.height, fp.focused)
}

func (fp filterPane) visibleRows() int {
	return max(1, fp.height-4) // account for title + border
}

func (fp *filterPane) ensureVisible() {
	if fp.cursor < fp.offset {
		fp.offset = fp.cursor
	}
	if fp.cursor >= fp.offset+fp.visibleRows() {
		fp.offset = fp.cursor - fp.visibleRows() + 1
	}
}

func (fp *filterPane) setSize(w, h int) {
	fp.width = w
	fp.height = h
}

// Helper functions

func keyMatches(msg tea.KeyMsg, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}

// framePane draws a titled, bordered pane of the given outer size.
func framePane(title, body string, width, height int, focused bool) string {
	borderStyle := inactiveBorderStyle
	if focused {
		borderStyle = activeBorderStyle
	}
	content := borderStyle.
		Width(width - 2).
		Height(height - 3).
		Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), content)
}

// fillRows pads a pane body with blank lines from row from up to rows.
func fillRows(b *strings.Builder, from, rows, width int) {
	for i := from; i < rows; i++ {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.Repeat(" ", max(0, width)))
	}
}

func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 || len(r) <= 3 {
		return string(r[:min(maxLen, len(r))])
	}
	return string(r[:min(maxLen-3, len(r))]) + "..."
}

func padRight(s string, width int) string {
	visLen := lipgloss.Width(s)
	if visLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visLen)
}

// stripAnsi removes ANSI escape sequences for re-styling.
func stripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
