package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bgricker/eggstep/internal/args"
)

const (
	// defaultTailBytes bounds the output kept for failure messages.
	defaultTailBytes = 64 << 10
	// waitDelay is how long output pipes stay open after an interrupt.
	waitDelay = 5 * time.Second
)

// Options configure how the runner launches the eggPlant process.
type Options struct {
	// Stdout receives the process output as it is produced. A nil Stderr
	// shares the Stdout pipe so the build log shows both streams interleaved.
	Stdout    io.Writer
	Stderr    io.Writer
	Env       map[string]string
	BaseEnv   []string
	TailLines int
	Now       func() time.Time
}

// Result describes a finished process.
type Result struct {
	ExitCode int
	Duration time.Duration
	// Tail holds the last lines of combined output.
	Tail string
}

// Runner launches one command line and waits for it.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.BaseEnv == nil {
		opts.BaseEnv = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Run launches inv and blocks until the process exits. A non-zero exit code
// is reported in Result, not as an error. Errors mean the process could not
// be started or the wait was interrupted.
func (r *Runner) Run(ctx context.Context, inv args.Invocation) (Result, error) {
	if len(inv.Args) == 0 {
		return Result{ExitCode: 127}, errors.New("empty command line")
	}

	cmd := exec.CommandContext(ctx, inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = mergeEnv(r.opts.BaseEnv, r.opts.Env)
	cmd.Stdin = nil
	cmd.WaitDelay = waitDelay

	tail := &tailBuffer{max: defaultTailBytes}
	mu := &sync.Mutex{}
	cmd.Stdout = &lockedWriter{mu: mu, w: io.MultiWriter(r.opts.Stdout, tail)}
	if r.opts.Stderr == nil {
		cmd.Stderr = cmd.Stdout
	} else {
		cmd.Stderr = &lockedWriter{mu: mu, w: io.MultiWriter(r.opts.Stderr, tail)}
	}

	start := r.opts.Now()
	err := cmd.Run()
	res := Result{
		ExitCode: exitCode(err),
		Duration: r.opts.Now().Sub(start),
		Tail:     tailLines(tail.String(), r.opts.TailLines),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("interrupted while waiting for %s: %w", inv.Executable(), ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, nil
		}
		res.ExitCode = 127
		return res, fmt.Errorf("launch %s: %w", inv.Executable(), err)
	}
	return res, nil
}

// Missing reports whether err means the executable could not be found.
func Missing(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

// lockedWriter serializes writes from the stdout and stderr copiers, which
// os/exec runs on separate goroutines when the two writers differ.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func mergeEnv(base []string, overlay map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlay))
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for k, v := range overlay {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
