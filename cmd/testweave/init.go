package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/testweave/pkg/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default workspace configuration",
	Long:  "Write .qa/testweave.yaml with the default include globs, heading keywords and limits.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	path := workspace.ConfigPath(ws)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := workspace.SaveConfig(ws, workspace.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
