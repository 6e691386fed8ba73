package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/bgricker/eggstep/internal/exitcodes"
	"github.com/bgricker/eggstep/internal/output"
	"github.com/bgricker/eggstep/internal/report"
)

const fakeRunscript = `#!/bin/sh
mkdir -p results/Login
cat > results/Login/RunHistory.csv <<'CSV'
RunDate,Status,Duration,Errors,Warnings,Exceptions,LogFile,ErrorMessage
2024-03-01 10:15:02 +0000,STATUS,3,0,0,0,LogFile.txt,
CSV
echo "runscript finished"
exit CODE
`

func writeRunscript(t *testing.T, status string, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("execution test requires a POSIX shell")
	}
	body := strings.ReplaceAll(fakeRunscript, "STATUS", status)
	body = strings.ReplaceAll(body, "CODE", strconv.Itoa(code))
	path := filepath.Join(t.TempDir(), "runscript")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write runscript: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunCommandSuccess(t *testing.T) {
	runscript := writeRunscript(t, "Success", 0)
	ws := t.TempDir()

	out, err := execute(t, "run",
		"--workspace", ws,
		"--build-id", "7",
		"--install", "eggPlant="+runscript,
		"--installation", "eggPlant",
		"--script", "Login.script",
		"--password", "hunter2",
	)
	if err != nil {
		t.Fatalf("command execute: %v\n%s", err, out)
	}

	for _, want := range []string{
		"eggPlant execution started",
		"runscript finished",
		"Parsing results for test: Login",
		"SUMMARY: 1 passed, 0 failed, SUCCESS",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hunter2") || !strings.Contains(out, "-password ********") {
		t.Fatalf("expected masked command line in output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(ws, ".eggstep", "builds", "7", report.ResultsFile)); err != nil {
		t.Fatalf("expected persisted results: %v", err)
	}
}

func TestRunCommandFailureThenResults(t *testing.T) {
	runscript := writeRunscript(t, "Failure", 1)
	ws := t.TempDir()

	out, err := execute(t, "run",
		"--workspace", ws,
		"--build-id", "8",
		"--install", "eggPlant="+runscript,
		"--installation", "eggPlant",
		"--script", "Login.script",
	)
	if !errors.Is(err, errStepFailed) {
		t.Fatalf("expected step failure, got %v\n%s", err, out)
	}
	if exitCode(err) != exitcodes.TestFailure {
		t.Fatalf("expected exit code %d", exitcodes.TestFailure)
	}

	out, err = execute(t, "results", "--workspace", ws, "--build-id", "8", "--format", "json")
	if !errors.Is(err, errStepFailed) {
		t.Fatalf("expected failed outcome, got %v", err)
	}
	var rep output.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode results: %v\n%s", err, out)
	}
	if len(rep.Records) != 1 || rep.Records[0].Passed || rep.Records[0].TestName != "Login" {
		t.Fatalf("unexpected records: %+v", rep.Records)
	}
	if rep.Summary.Outcome != report.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", rep.Summary.Outcome)
	}
}

func TestResultsCommandKeepsNonZeroExit(t *testing.T) {
	runscript := writeRunscript(t, "Success", 3)
	ws := t.TempDir()

	out, err := execute(t, "run",
		"--workspace", ws,
		"--build-id", "11",
		"--install", "eggPlant="+runscript,
		"--installation", "eggPlant",
		"--script", "Login.script",
	)
	if !errors.Is(err, errStepFailed) {
		t.Fatalf("expected step failure, got %v\n%s", err, out)
	}

	out, err = execute(t, "results", "--workspace", ws, "--build-id", "11", "--format", "json")
	if !errors.Is(err, errStepFailed) {
		t.Fatalf("expected failed outcome, got %v\n%s", err, out)
	}
	var rep output.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode results: %v\n%s", err, out)
	}
	if len(rep.Records) != 1 || !rep.Records[0].Passed {
		t.Fatalf("unexpected records: %+v", rep.Records)
	}
	if rep.Summary.Outcome != report.OutcomeFailure || rep.Summary.ExitCode != 3 {
		t.Fatalf("expected FAILURE with exit code 3, got %+v", rep.Summary)
	}
}

func TestRunCommandRepeatedInstallationUsesFirst(t *testing.T) {
	runscript := writeRunscript(t, "Success", 0)
	ws := t.TempDir()
	config := "installations:\n" +
		"  - name: eggPlant\n" +
		"    home: " + runscript + "\n" +
		"  - name: eggPlant\n" +
		"    home: " + filepath.Join(ws, "missing", "runscript") + "\n"
	if err := os.WriteFile(filepath.Join(ws, ".eggstep.yml"), []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := execute(t, "run",
		"--workspace", ws,
		"--build-id", "12",
		"--installation", "eggPlant",
		"--script", "Login.script",
	)
	if err != nil {
		t.Fatalf("command execute: %v\n%s", err, out)
	}
	if !strings.Contains(out, "runscript finished") || !strings.Contains(out, "SUCCESS") {
		t.Fatalf("expected first installation to run:\n%s", out)
	}
}

func TestRunCommandNoSteps(t *testing.T) {
	_, err := execute(t, "run", "--workspace", t.TempDir(), "--build-id", "9")
	if err == nil || errors.Is(err, errStepFailed) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if exitCode(err) != exitcodes.RuntimeErr {
		t.Fatalf("expected runtime exit code")
	}
}

func TestRunCommandUnknownInstallation(t *testing.T) {
	out, err := execute(t, "run",
		"--workspace", t.TempDir(),
		"--build-id", "10",
		"--installation", "missing",
		"--script", "Login.script",
	)
	if !errors.Is(err, errStepFailed) {
		t.Fatalf("expected step failure, got %v", err)
	}
	if !strings.Contains(out, "eggPlant installation not found for this node.") {
		t.Fatalf("expected lookup message, got:\n%s", out)
	}
}

func TestResultsCommandMissingBuild(t *testing.T) {
	_, err := execute(t, "results", "--workspace", t.TempDir(), "--build-id", "nope")
	if err == nil || !strings.Contains(err.Error(), `no results recorded for build "nope"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInstallationsCommand(t *testing.T) {
	ws := t.TempDir()
	config := []byte(`installations:
  - name: eggPlant 7
    home: /opt/eggPlant/runscript
`)
	if err := os.WriteFile(filepath.Join(ws, ".eggstep.yml"), config, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := execute(t, "installations", "--workspace", ws)
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if !strings.Contains(out, "eggPlant 7") || !strings.Contains(out, "/opt/eggPlant/runscript") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestInvalidVar(t *testing.T) {
	_, err := execute(t, "run", "--workspace", t.TempDir(), "--build-id", "1", "--script", "x", "--var", "novalue")
	if err == nil || !strings.Contains(err.Error(), "KEY=VALUE") {
		t.Fatalf("expected --var parse error, got %v", err)
	}
}
