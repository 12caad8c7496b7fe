package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/testweave/pkg/scanner"
	"github.com/praetorian-inc/testweave/pkg/store"
	"github.com/praetorian-inc/testweave/pkg/types"
	"github.com/praetorian-inc/testweave/pkg/workspace"
)

var (
	scanOutputFormat string
	scanGit          bool
	scanNoStore      bool
	scanCycle        string
	scanColor        string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the workspace for test cases",
	Long: `Scan the workspace for test case identifiers and build the inventory of
definitions and references. The result is stored in .qa/testweave.db
unless --no-store is given.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().BoolVar(&scanGit, "git", false, "Also scan commit messages of the workspace repository")
	scanCmd.Flags().BoolVar(&scanNoStore, "no-store", false, "Do not store the result")
	scanCmd.Flags().StringVar(&scanCycle, "cycle", "", "Record the scan under an existing cycle")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "Color output: auto, always, never")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := validateFormat(scanOutputFormat); err != nil {
		return err
	}
	colored, err := colorEnabled(scanColor)
	if err != nil {
		return err
	}
	if scanNoStore && scanCycle != "" {
		return fmt.Errorf("--cycle needs the result to be stored, drop --no-store")
	}

	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := workspace.LoadConfig(ws)
	if err != nil {
		return err
	}

	var s store.Store
	if !scanNoStore {
		s, err = openStore(ws)
		if err != nil {
			return err
		}
		defer s.Close()

		if scanCycle != "" {
			if _, err := s.GetCycle(scanCycle); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("cycle %q does not exist, create it with: testweave cycle create %s", scanCycle, scanCycle)
				}
				return fmt.Errorf("looking up cycle: %w", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core := scanner.NewCore(scanner.Options{Headings: cfg.Headings, Logger: slog.Default()})
	result, err := core.ScanWorkspace(ctx, cfg.EnumConfig(ws), scanGit || cfg.Git)
	if err != nil {
		return err
	}
	result.Cycle = scanCycle

	// Status lines go to stderr for json/sarif so stdout stays parseable
	status := cmd.OutOrStdout()
	if scanOutputFormat != "human" {
		status = cmd.ErrOrStderr()
	}

	if s != nil {
		if err := s.SaveScan(result); err != nil {
			return fmt.Errorf("storing scan: %w", err)
		}
		fmt.Fprintf(status, "Results stored in: %s\n", workspace.DatabasePath(ws))
	}
	fmt.Fprintf(status, "Scan complete: %s\n", summary(result))

	return writeResult(cmd.OutOrStdout(), result, scanOutputFormat, newStyles(colored))
}

// openStore opens the scan database of ws, creating .qa as needed.
func openStore(ws string) (store.Store, error) {
	if err := os.MkdirAll(workspace.Dir(ws), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", workspace.DirName, err)
	}
	s, err := store.New(store.Config{Path: workspace.DatabasePath(ws)})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

func summary(result *types.ScanResult) string {
	st := result.Inventory.Stats
	return fmt.Sprintf("%d documents, %d test cases, %d diagnostics", result.Documents, st.TestCases, len(result.Inventory.Diagnostics))
}
