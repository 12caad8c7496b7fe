package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/testweave/internal/logger"
	"github.com/praetorian-inc/testweave/pkg/workspace"
)

var (
	verbose   bool
	quiet     bool
	logFormat string
	rootDir   string
)

var rootCmd = &cobra.Command{
	Use:   "testweave",
	Short: "TestWeave - local-first test case management",
	Long: `TestWeave finds test case identifiers (TC-001, TC-TS02-001, C02, ...) in
specs, feature files, notes and documents, and builds an inventory of
where each test case is defined and referenced.

Scans are stored per workspace in .qa/testweave.db and can be grouped
into test cycles.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Server root; its .qa/workspace.json may point at another workspace")

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupLogging installs the process logger. Logs go to stderr so stdout
// stays clean for json and sarif output.
func setupLogging(cmd *cobra.Command, args []string) error {
	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{
		Level:  logger.LevelFor(verbose, quiet),
		Format: format,
		Output: os.Stderr,
	})
	return nil
}

// resolveWorkspace returns the workspace selected under the --root
// directory, or the root itself.
func resolveWorkspace() (string, error) {
	root, err := workspace.Resolve(rootDir)
	if err != nil {
		return "", fmt.Errorf("root: %w", err)
	}
	return workspace.Load(root), nil
}
