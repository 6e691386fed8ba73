package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bgricker/eggstep/internal/build"
	"github.com/bgricker/eggstep/internal/config"
	"github.com/bgricker/eggstep/internal/metrics"
	"github.com/bgricker/eggstep/internal/output"
	"github.com/bgricker/eggstep/internal/report"
	"github.com/bgricker/eggstep/internal/step"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run eggPlant scripts and gather their results",
		Args:  cobra.NoArgs,
		RunE:  runExecute,
	}

	flags := cmd.Flags()
	flags.String("build-url", "", "build URL used for result links (default $BUILD_URL)")
	flags.StringArray("var", nil, "build variable as KEY=VALUE (repeatable)")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile")

	flags.String("script", "", "script path(s), comma or space separated; replaces configured steps")
	flags.String("installation", "", "installation name")
	flags.String("host", "", "system under test host")
	flags.String("port", "", "system under test port")
	flags.String("password", "", "system under test password")
	flags.String("color-depth", "", "connection color depth")
	flags.String("global-results-folder", "", "results folder (default workspace)")
	flags.String("default-document-directory", "", "document directory (default workspace)")
	flags.String("params", "", "extra runner arguments")
	flags.Bool("report-failures", false, "pass -ReportFailures YES")
	flags.Bool("command-line-output", false, "pass -CommandLineOutput YES")

	return cmd
}

func runExecute(cmd *cobra.Command, _ []string) error {
	cfg, workspace, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Steps) == 0 {
		return errors.New("no steps configured; pass --script or add steps to " + config.FileYAML)
	}

	buildLog := cmd.OutOrStdout()
	if cfg.Format == config.FormatJSON {
		buildLog = cmd.ErrOrStderr()
	}
	b, err := newBuild(cmd, cfg, workspace, buildLog)
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	recorder := metrics.New()
	store := newStore(cfg, workspace)

	st := step.New(cfg.Installations, store)
	st.Logger = logger
	st.Metrics = recorder

	failed := false
	for i, p := range cfg.Steps {
		exec := st.Run(cmd.Context(), b, p)
		if !exec.OK() {
			logger.Warn().Int("step", i+1).Str("script", p.Script).Err(exec.Err).Msg("step failed; skipping remaining steps")
			failed = true
			break
		}
	}

	if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Error().Err(err).Msg("metrics export failed")
	}

	acc, err := store.Attach(b.ID)
	if err != nil {
		return err
	}
	summary := report.Evaluate(acc.Records, acc.ExitCode)
	if err := render(cmd.OutOrStdout(), cfg.Format, acc, summary); err != nil {
		return err
	}

	if failed || b.Result() == build.ResultFailure {
		return fmt.Errorf("build %s: %w", b.ID, errStepFailed)
	}
	return nil
}

func render(w io.Writer, format string, acc *report.Accumulator, summary report.Summary) error {
	switch format {
	case config.FormatPretty:
		return output.NewPretty(w).RenderResults(acc.BuildID, acc.Records, summary)
	case config.FormatJSON:
		return output.NewJSON(w).Render(output.Report{BuildID: acc.BuildID, Records: acc.Records, Summary: summary})
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
