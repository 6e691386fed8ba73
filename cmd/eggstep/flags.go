package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bgricker/eggstep/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	strs := []struct {
		name string
		dst  *config.StringFlag
	}{
		{"node", &values.Node},
		{"format", &values.Format},
		{"log-level", &values.LogLevel},
		{"metrics-file", &values.MetricsFile},
		{"state-dir", &values.StateDir},
		{"script", &values.Step.Script},
		{"installation", &values.Step.Installation},
		{"host", &values.Step.Host},
		{"port", &values.Step.Port},
		{"password", &values.Step.Password},
		{"color-depth", &values.Step.ColorDepth},
		{"global-results-folder", &values.Step.GlobalResultsFolder},
		{"default-document-directory", &values.Step.DefaultDocumentDirectory},
		{"params", &values.Step.Params},
	}
	for _, f := range strs {
		if err := stringFlag(flags, f.name, f.dst); err != nil {
			return values, err
		}
	}

	bools := []struct {
		name string
		dst  *config.BoolFlag
	}{
		{"report-failures", &values.Step.ReportFailures},
		{"command-line-output", &values.Step.CommandLineOutput},
	}
	for _, f := range bools {
		if err := boolFlag(flags, f.name, f.dst); err != nil {
			return values, err
		}
	}

	if flags.Changed("install") {
		v, err := flags.GetStringArray("install")
		if err != nil {
			return values, fmt.Errorf("parse --install: %w", err)
		}
		for _, raw := range v {
			if name, _, ok := cutPair(raw); !ok || name == "" {
				return values, fmt.Errorf("parse --install: expected NAME=HOME, got %q", raw)
			}
		}
		values.Installations = config.SliceFlag{Values: append([]string{}, v...)}
	}

	return values, nil
}

func stringFlag(flags *pflag.FlagSet, name string, dst *config.StringFlag) error {
	if !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return fmt.Errorf("parse --%s: %w", name, err)
	}
	*dst = config.StringFlag{Value: v, Set: true}
	return nil
}

func boolFlag(flags *pflag.FlagSet, name string, dst *config.BoolFlag) error {
	if !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetBool(name)
	if err != nil {
		return fmt.Errorf("parse --%s: %w", name, err)
	}
	*dst = config.BoolFlag{Value: v, Set: true}
	return nil
}
