package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/testweave/pkg/explore"
)

var exploreCycle string

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactively browse the latest scan",
	Long: `Launch an interactive TUI to browse the test cases of the latest stored
scan, optionally restricted to one cycle.

Features:
  - Three-pane layout: filters, test case table, occurrence details
  - Faceted search by status, source and file type
  - Vi-style navigation (hjkl, Ctrl-f/b, g/G)
  - Opens the file of an occurrence in $PAGER at its line
  - Sortable test case table`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVar(&exploreCycle, "cycle", "", "Cycle name (optional)")
}

func runExplore(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	result, err := explore.Load(ws, exploreCycle)
	if err != nil {
		return err
	}

	p := tea.NewProgram(explore.New(result), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running explore TUI: %w", err)
	}
	return nil
}
