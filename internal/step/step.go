// Package step runs one eggPlant build step: resolve the installation, build
// the command line, run it, then gather RunHistory.csv results into the
// build's accumulator and decide the outcome.
package step

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bgricker/eggstep/internal/args"
	"github.com/bgricker/eggstep/internal/build"
	"github.com/bgricker/eggstep/internal/discovery"
	"github.com/bgricker/eggstep/internal/install"
	"github.com/bgricker/eggstep/internal/macro"
	"github.com/bgricker/eggstep/internal/metrics"
	"github.com/bgricker/eggstep/internal/parser"
	"github.com/bgricker/eggstep/internal/report"
	"github.com/bgricker/eggstep/internal/runner"
)

// Build log lines.
const (
	msgScriptRequired  = "Script name required for eggPlant execution."
	msgStarted         = "eggPlant execution started"
	msgNotFound        = "eggPlant installation not found for this node."
	msgNoRuntime       = "eggPlant runtime not defined."
	msgCompleted       = "Runscript execution completed"
	msgParsing         = "Parsing results..."
	msgParsingTest     = "Parsing results for test: %s"
	msgFinishedParsing = "Finished parsing eggPlant results"
)

// Launcher runs a command line to completion.
type Launcher interface {
	Run(ctx context.Context, inv args.Invocation) (runner.Result, error)
}

// Step holds the collaborators of a build step. The zero value is not usable;
// call New.
type Step struct {
	Installations install.Registry
	Store         report.Store
	Parser        parser.Parser
	Logger        zerolog.Logger
	Metrics       *metrics.Recorder

	// NewLauncher returns the launcher for b. It defaults to a process
	// runner streaming into the build log.
	NewLauncher func(b *build.Build) Launcher
	NewRunID    func() string
	Now         func() time.Time
}

// New returns a step with the default parser, launcher and a disabled logger.
func New(reg install.Registry, store report.Store) *Step {
	return &Step{
		Installations: reg,
		Store:         store,
		Parser:        parser.NewCSVParser(),
		Logger:        zerolog.Nop(),
		NewLauncher:   processLauncher,
		NewRunID:      uuid.NewString,
		Now:           time.Now,
	}
}

func processLauncher(b *build.Build) Launcher {
	return runner.New(runner.Options{Stdout: b.Log, Env: b.Env})
}

// Execution is what a single Run observed.
type Execution struct {
	RunID    string
	ExitCode int
	// Launched is false when the step failed before the process started.
	Launched  bool
	Artifacts int
	Appended  int
	Summary   report.Summary
	Err       error
}

// OK reports whether the execution succeeded.
func (e Execution) OK() bool {
	return e.Err == nil && e.Summary.Outcome == report.OutcomeSuccess
}

// Perform runs the step and reports success. Everything else is written to
// the build log.
func (s *Step) Perform(ctx context.Context, b *build.Build, p args.Params) bool {
	return s.Run(ctx, b, p).OK()
}

// Run executes the step in order: validate, resolve, build, launch, discover,
// parse, evaluate. It never panics on bad input and only returns through
// Execution.
func (s *Step) Run(ctx context.Context, b *build.Build, p args.Params) Execution {
	start := s.now()
	exec := Execution{RunID: s.runID()}
	log := s.Logger.With().Str("build_id", b.ID).Str("run_id", exec.RunID).Logger()

	finish := func(outcome string) Execution {
		s.Metrics.ObserveStep(outcome, s.now().Sub(start))
		return exec
	}

	if strings.TrimSpace(p.Script) == "" {
		b.Logf(msgScriptRequired)
		exec.Err = args.ErrNoScript
		return finish("error")
	}

	b.Logf(msgStarted)
	inst, err := install.Resolve(s.Installations, p.Installation, b.Node, b.Env)
	if err != nil {
		switch {
		case errors.Is(err, install.ErrNotFound):
			b.Logf(msgNotFound)
		case errors.Is(err, install.ErrNoHome):
			b.Logf(msgNoRuntime)
		default:
			b.Logf("%v", err)
		}
		log.Warn().Err(err).Str("installation", p.Installation).Str("node", b.Node).Msg("installation lookup failed")
		exec.Err = err
		return finish("error")
	}

	inv, err := args.Build(inst.Home, p, args.Context{Workspace: b.Workspace, Env: b.Env, Vars: b.Vars})
	if err != nil {
		b.Logf("%v", err)
		exec.Err = err
		return finish("error")
	}
	b.Logf("%s", inv.String())
	log.Debug().Str("installation", inst.Name).Str("executable", inv.Executable()).Int("args", len(inv.Args)).Msg("launching eggPlant")

	res, err := s.launcher(b).Run(ctx, inv)
	exec.ExitCode = res.ExitCode
	if err != nil {
		b.Logf("%v", err)
		if res.Tail != "" {
			b.Logf("%s", res.Tail)
		}
		log.Error().Err(err).Int("exit_code", res.ExitCode).Bool("missing", runner.Missing(err)).Msg("eggPlant launch failed")
		exec.Err = err
		return finish("error")
	}
	exec.Launched = true
	s.Metrics.ObserveProcess(res.ExitCode)
	if res.ExitCode != 0 {
		b.SetResult(build.ResultFailure)
		log.Warn().Int("exit_code", res.ExitCode).Dur("duration", res.Duration).Msg("eggPlant exited with failure")
	}

	b.Logf(msgCompleted)
	b.Logf(msgParsing)
	acc, err := s.Store.Attach(b.ID)
	if err != nil {
		b.Logf("%v", err)
		exec.Err = err
		return finish("error")
	}
	acc.RecordExit(res.ExitCode)

	exec.Err = s.gather(b, p, acc, &exec)
	b.Logf(msgFinishedParsing)

	if err := s.Store.Save(acc); err != nil {
		b.Logf("%v", err)
		if exec.Err == nil {
			exec.Err = err
		}
	}

	exec.Summary = report.Evaluate(acc.Records, acc.ExitCode)
	log.Info().
		Int("artifacts", exec.Artifacts).
		Int("appended", exec.Appended).
		Int("total", exec.Summary.Total).
		Int("failed", exec.Summary.Failed).
		Str("outcome", string(exec.Summary.Outcome)).
		Msg("eggPlant results gathered")

	if exec.Err != nil {
		return finish("error")
	}
	return finish(strings.ToLower(string(exec.Summary.Outcome)))
}

// gather appends the records of every artifact under the workspace to acc.
// It stops at the first artifact that cannot be read.
func (s *Step) gather(b *build.Build, p args.Params, acc *report.Accumulator, exec *Execution) error {
	artifacts, err := discovery.Results(b.Workspace)
	if err != nil {
		b.Logf("%v", err)
		return err
	}
	sut := macro.ResolveString(p.Host, b.Env, b.Vars)
	for _, a := range artifacts {
		b.Logf(msgParsingTest, a.Script())
		records, err := parser.ParseFile(s.Parser, parser.Source{
			Path:     a.Path,
			Script:   a.Script(),
			SUT:      sut,
			BuildURL: b.URL,
			RunID:    exec.RunID,
		})
		acc.Append(records...)
		exec.Appended += len(records)
		if err != nil {
			b.Logf("%v", err)
			return err
		}
		exec.Artifacts++
		s.Metrics.ObserveArtifact(records)
	}
	return nil
}

func (s *Step) launcher(b *build.Build) Launcher {
	if s.NewLauncher == nil {
		return processLauncher(b)
	}
	return s.NewLauncher(b)
}

func (s *Step) runID() string {
	if s.NewRunID == nil {
		return uuid.NewString()
	}
	return s.NewRunID()
}

func (s *Step) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
