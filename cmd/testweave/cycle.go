package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/testweave/pkg/store"
)

var cycleJSON bool

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Manage test cycles",
	Long:  "Test cycles (for example 2026-01) group scans for reporting.",
}

var cycleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cycles",
	Args:  cobra.NoArgs,
	RunE:  runCycleList,
}

var cycleCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a cycle",
	Long:  "Create a cycle. Names are 1-64 characters of letters, digits, '.', '_' or '-'.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCycleCreate,
}

func init() {
	cycleListCmd.Flags().BoolVar(&cycleJSON, "json", false, "Output JSON")
	cycleCmd.AddCommand(cycleListCmd)
	cycleCmd.AddCommand(cycleCreateCmd)
}

func runCycleList(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	s, err := openStore(ws)
	if err != nil {
		return err
	}
	defer s.Close()

	cycles, err := s.ListCycles()
	if err != nil {
		return fmt.Errorf("listing cycles: %w", err)
	}

	out := cmd.OutOrStdout()
	if cycleJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cycles)
	}

	if len(cycles) == 0 {
		fmt.Fprintln(out, "No cycles.")
		return nil
	}
	for _, c := range cycles {
		fmt.Fprintf(out, "%-24s %s\n", c.Name, c.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runCycleCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := store.ValidateCycleName(name); err != nil {
		return err
	}

	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	s, err := openStore(ws)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.CreateCycle(name)
	if errors.Is(err, store.ErrCycleExists) {
		return fmt.Errorf("cycle %q already exists", name)
	}
	if err != nil {
		return fmt.Errorf("creating cycle: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created cycle %s\n", c.Name)
	return nil
}
