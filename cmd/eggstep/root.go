package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "eggstep",
		Short:         "Eggstep runs eggPlant GUI tests as a CI build step",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("config", "", "config file (default .eggstep.yml or .eggstep.toml in the workspace)")
	persistent.String("workspace", "", "build workspace root (default current directory)")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.String("log-level", "", "diagnostics log level (debug|info|warn|error)")
	persistent.String("state-dir", "", "directory holding accumulated results, relative to the workspace")
	persistent.String("node", "", "build node name used for installation overrides (default $NODE_NAME)")
	persistent.StringArray("install", nil, "define an installation as NAME=HOME (repeatable)")
	persistent.String("build-id", "", "build identifier (default $BUILD_ID or $BUILD_NUMBER)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newResultsCmd())
	cmd.AddCommand(newInstallationsCmd())

	return cmd
}
