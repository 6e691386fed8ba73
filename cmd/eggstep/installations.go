package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/eggstep/internal/build"
	"github.com/bgricker/eggstep/internal/config"
	"github.com/bgricker/eggstep/internal/install"
	"github.com/bgricker/eggstep/internal/output"
)

func newInstallationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "installations",
		Short: "List configured eggPlant installations for this node",
		Args:  cobra.NoArgs,
		RunE:  runInstallations,
	}
	cmd.Flags().Bool("check", false, "verify each installation resolves to an executable")
	return cmd
}

func runInstallations(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	switch cfg.Format {
	case config.FormatJSON:
		err = output.NewJSON(cmd.OutOrStdout()).RenderInstallations(cfg.Installations)
	default:
		err = output.NewPretty(cmd.OutOrStdout()).RenderInstallations(cfg.Installations)
	}
	if err != nil {
		return err
	}

	check, _ := cmd.Flags().GetBool("check")
	if !check {
		return nil
	}
	env := build.EnvFromOS()
	bad := 0
	for _, inst := range cfg.Installations {
		if _, err := install.Check(inst.Translate(cfg.Node, env)); err != nil {
			bad++
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", inst.Name, err)
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d installations unusable on node %q", bad, len(cfg.Installations), cfg.Node)
	}
	return nil
}
