package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/testweave/pkg/store"
	"github.com/praetorian-inc/testweave/pkg/types"
	"github.com/praetorian-inc/testweave/pkg/workspace"
)

// Files written into the --out directory.
const (
	reportJSONFile  = "report.json"
	reportSARIFFile = "report.sarif"
)

var (
	reportCycle  string
	reportOut    string
	reportFormat string
	reportColor  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a report of the latest scan",
	Long: `Render the latest stored scan, optionally restricted to one cycle, and
write report.json and report.sarif into the --out directory. Pass
--out "" to only print.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportCycle, "cycle", "", "Cycle name (optional)")
	reportCmd.Flags().StringVar(&reportOut, "out", "report", "Output directory")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := validateFormat(reportFormat); err != nil {
		return err
	}
	colored, err := colorEnabled(reportColor)
	if err != nil {
		return err
	}

	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	dbPath := workspace.DatabasePath(ws)
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no scans stored in %s, run testweave scan first", ws)
	}

	s, err := store.New(store.Config{Path: dbPath})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	if reportCycle != "" {
		if _, err := s.GetCycle(reportCycle); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("cycle %q does not exist", reportCycle)
			}
			return fmt.Errorf("looking up cycle: %w", err)
		}
	}

	result, err := s.LatestScan(reportCycle)
	if errors.Is(err, store.ErrNotFound) {
		if reportCycle != "" {
			return fmt.Errorf("no scans recorded for cycle %q", reportCycle)
		}
		return fmt.Errorf("no scans stored in %s, run testweave scan first", ws)
	}
	if err != nil {
		return fmt.Errorf("loading latest scan: %w", err)
	}

	if reportOut != "" {
		if err := os.MkdirAll(reportOut, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", reportOut, err)
		}
		for name, format := range map[string]string{reportJSONFile: "json", reportSARIFFile: "sarif"} {
			if err := writeReportFile(filepath.Join(reportOut, name), result, format); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to: %s\n", reportOut)
	}

	return writeResult(cmd.OutOrStdout(), result, reportFormat, newStyles(colored))
}

func writeReportFile(path string, result *types.ScanResult, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return writeResult(f, result, format, newStyles(false))
}
