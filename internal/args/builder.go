// Package args assembles the eggPlant runner command line.
//
// The runner parses its arguments positionally: script paths first, then
// flag/value pairs. Build emits sections in a fixed order and skips any
// optional section whose field is empty, so identical Params always produce
// an identical token sequence.
package args

import (
	"errors"
	"strings"

	"github.com/bgricker/eggstep/internal/macro"
)

// ErrNoScript reports a blank script field.
var ErrNoScript = errors.New("args: script name required")

const maskedValue = "********"

// Params is the configuration snapshot of one build step.
type Params struct {
	Script                   string `yaml:"script" toml:"script" json:"script"`
	Host                     string `yaml:"host" toml:"host" json:"host,omitempty"`
	Port                     string `yaml:"port" toml:"port" json:"port,omitempty"`
	Password                 string `yaml:"password" toml:"password" json:"-"`
	ColorDepth               string `yaml:"color_depth" toml:"color_depth" json:"color_depth,omitempty"`
	GlobalResultsFolder      string `yaml:"global_results_folder" toml:"global_results_folder" json:"global_results_folder,omitempty"`
	DefaultDocumentDirectory string `yaml:"default_document_directory" toml:"default_document_directory" json:"default_document_directory,omitempty"`
	Params                   string `yaml:"params" toml:"params" json:"params,omitempty"`
	ReportFailures           bool   `yaml:"report_failures" toml:"report_failures" json:"report_failures"`
	CommandLineOutput        bool   `yaml:"command_line_output" toml:"command_line_output" json:"command_line_output"`
	Installation             string `yaml:"installation" toml:"installation" json:"installation"`
}

// Context carries the build values the builder reads.
type Context struct {
	Workspace string
	Env       map[string]string
	Vars      map[string]string
}

// Invocation is a fully resolved command line. It is not modified after Build
// returns it.
type Invocation struct {
	Args []string
	Dir  string

	masked map[int]struct{}
}

// Executable returns the first token.
func (inv Invocation) Executable() string {
	if len(inv.Args) == 0 {
		return ""
	}
	return inv.Args[0]
}

// Masked reports whether token i must be hidden in logs.
func (inv Invocation) Masked(i int) bool {
	_, ok := inv.masked[i]
	return ok
}

// Redacted returns a copy of Args with masked tokens replaced.
func (inv Invocation) Redacted() []string {
	out := make([]string, len(inv.Args))
	for i, a := range inv.Args {
		if inv.Masked(i) {
			a = maskedValue
		}
		out[i] = a
	}
	return out
}

// String renders the command line for the build log with masked tokens hidden
// and tokens containing whitespace quoted.
func (inv Invocation) String() string {
	parts := inv.Redacted()
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\"") {
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
		}
	}
	return strings.Join(parts, " ")
}

// Build assembles the invocation for executable home.
func Build(home string, p Params, ctx Context) (Invocation, error) {
	if strings.TrimSpace(p.Script) == "" {
		return Invocation{}, ErrNoScript
	}

	b := &listBuilder{}
	b.add(home)
	b.add(Split(p.Script)...)

	b.addPair("-host", p.Host)
	b.addPair("-port", p.Port)
	if p.Password != "" {
		b.add("-password")
		b.addMasked(p.Password)
	}
	b.addPair("-colorDepth", p.ColorDepth)

	if p.ReportFailures {
		b.add("-ReportFailures", "YES")
	}
	if p.CommandLineOutput {
		b.add("-CommandLineOutput", "YES")
	}
	if p.Params != "" {
		b.add(Split(p.Params)...)
	}

	b.add("-DefaultDocumentDirectory", directory(p.DefaultDocumentDirectory, ctx))
	b.add("-GlobalResultsFolder", directory(p.GlobalResultsFolder, ctx))

	return Invocation{Args: b.args, Dir: ctx.Workspace, masked: b.masked}, nil
}

func directory(field string, ctx Context) string {
	if field == "" {
		return ctx.Workspace
	}
	return macro.ResolveString(field, ctx.Env, ctx.Vars)
}

type listBuilder struct {
	args   []string
	masked map[int]struct{}
}

func (b *listBuilder) add(tokens ...string) {
	b.args = append(b.args, tokens...)
}

func (b *listBuilder) addPair(flag, value string) {
	if value == "" {
		return
	}
	b.add(flag, value)
}

func (b *listBuilder) addMasked(token string) {
	if b.masked == nil {
		b.masked = make(map[int]struct{})
	}
	b.masked[len(b.args)] = struct{}{}
	b.args = append(b.args, token)
}
