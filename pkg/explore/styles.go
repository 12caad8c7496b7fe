package explore

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	colorPrimary   = lipgloss.Color("#e63948") // red
	colorSecondary = lipgloss.Color("10")      // green
	colorMatch     = lipgloss.Color("#D4AF37") // gold
	colorError     = lipgloss.Color("9")       // red
	colorMuted     = lipgloss.Color("8")       // gray
	colorAccent    = lipgloss.Color("#11C3DB") // cyan
	colorHighlight = lipgloss.Color("15")      // white
)

// Pane border styles
var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorMuted)
)

// Title style for pane headers
var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Background(colorPrimary).
	Padding(0, 1)

// Table row styles
var (
	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("17")).
				Foreground(colorHighlight)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)
)

var idStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorMatch)

// Test case status styles
var (
	definedStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	undefinedStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	duplicateStyle = lipgloss.NewStyle().
			Foreground(colorMatch)
)

// Status bar
var statusBarStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// Help styles
var (
	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Facet styles
var (
	facetLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	facetSelectedStyle = lipgloss.NewStyle().Foreground(colorSecondary)
	facetCountStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// Detail field styles
var (
	fieldLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	fieldValueStyle = lipgloss.NewStyle().Foreground(colorHighlight)
	mutedStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// Modal overlay style
var modalStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// renderStatus returns a styled test case status.
func renderStatus(status string) string {
	switch status {
	case statusDefined:
		return definedStyle.Render(status)
	case statusUndefined:
		return undefinedStyle.Render(status)
	case statusDuplicate:
		return duplicateStyle.Render(status)
	default:
		return mutedStyle.Render("-")
	}
}
