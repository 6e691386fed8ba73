package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bgricker/eggstep/internal/filter"
	"github.com/bgricker/eggstep/internal/report"
)

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the results accumulated for a build",
		Args:  cobra.NoArgs,
		RunE:  runResults,
	}
	cmd.Flags().StringArray("test", nil, "show only matching tests, substring or /regex/ (repeatable)")
	cmd.Flags().Bool("failed", false, "show only failed records")
	return cmd
}

func runResults(cmd *cobra.Command, _ []string) error {
	cfg, workspace, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	id, err := resolveBuildID(cmd, false)
	if err != nil {
		return err
	}

	acc, err := newStore(cfg, workspace).Load(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no results recorded for build %q", id)
		}
		return err
	}

	tests, _ := cmd.Flags().GetStringArray("test")
	patterns, err := filter.Compile(tests)
	if err != nil {
		return err
	}
	failedOnly, _ := cmd.Flags().GetBool("failed")

	overall := report.Evaluate(acc.Records, acc.ExitCode)
	shown := &report.Accumulator{
		BuildID:  acc.BuildID,
		ExitCode: acc.ExitCode,
		Records: filter.Records(acc.Records, filter.Options{Tests: patterns, FailedOnly: failedOnly}),
	}
	if shown.Records == nil {
		shown.Records = []report.Record{}
	}
	summary := report.Evaluate(shown.Records, acc.ExitCode)
	summary.Outcome = overall.Outcome

	if err := render(cmd.OutOrStdout(), cfg.Format, shown, summary); err != nil {
		return err
	}
	if overall.Outcome != report.OutcomeSuccess {
		return fmt.Errorf("build %s: %w", id, errStepFailed)
	}
	return nil
}
