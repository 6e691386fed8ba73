// Package build models the CI build a step runs inside.
package build

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Result is the pipeline level verdict of a build.
type Result string

const (
	ResultSuccess Result = "SUCCESS"
	ResultFailure Result = "FAILURE"
)

// Build carries what the host pipeline hands to a step. Only Log and the
// result are written to.
type Build struct {
	ID        string
	URL       string
	Workspace string
	Node      string
	Env       map[string]string
	Vars      map[string]string
	Log       io.Writer

	result Result
}

// New returns a build with a successful result and a discarding log when log
// is nil.
func New(id, url, workspace string, log io.Writer) *Build {
	if log == nil {
		log = io.Discard
	}
	return &Build{
		ID:        id,
		URL:       url,
		Workspace: workspace,
		Env:       map[string]string{},
		Vars:      map[string]string{},
		Log:       log,
		result:    ResultSuccess,
	}
}

// Result returns the current build result.
func (b *Build) Result() Result {
	if b.result == "" {
		return ResultSuccess
	}
	return b.result
}

// SetResult records r. A build never recovers from FAILURE.
func (b *Build) SetResult(r Result) {
	if b.result == ResultFailure {
		return
	}
	b.result = r
}

// Logf writes one line to the build log.
func (b *Build) Logf(format string, args ...any) {
	fmt.Fprintf(b.Log, format+"\n", args...)
}

// Environ returns Env as sorted KEY=VALUE pairs.
func (b *Build) Environ() []string {
	keys := make([]string, 0, len(b.Env))
	for k := range b.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+b.Env[k])
	}
	return out
}

// EnvFromOS converts os.Environ into a map.
func EnvFromOS() map[string]string {
	return ParseEnv(os.Environ())
}

// ParseEnv converts KEY=VALUE pairs into a map. Entries without '=' are ignored.
func ParseEnv(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if idx := strings.Index(kv, "="); idx > 0 {
			out[kv[:idx]] = kv[idx+1:]
		}
	}
	return out
}
