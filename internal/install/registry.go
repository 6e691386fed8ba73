// Package install resolves named eggPlant installations to an executable
// path on the node running the build.
package install

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bgricker/eggstep/internal/macro"
)

var (
	// ErrNotFound reports that no installation carries the requested name.
	ErrNotFound = errors.New("install: installation not found")
	// ErrNoHome reports that the installation resolved to a blank executable path.
	ErrNoHome = errors.New("install: runtime not defined")
)

// Installation points at the eggPlant runner executable.
type Installation struct {
	Name string `yaml:"name" toml:"name" json:"name"`
	Home string `yaml:"home" toml:"home" json:"home"`
	// Nodes overrides Home for specific build nodes, keyed by node name.
	Nodes map[string]string `yaml:"nodes,omitempty" toml:"nodes" json:"nodes,omitempty"`
}

// Registry is the ordered set of configured installations.
type Registry []Installation

// Lookup scans the registry for an exact name match. The first match wins.
func (r Registry) Lookup(name string) (Installation, bool) {
	for _, inst := range r {
		if inst.Name == name {
			return inst, true
		}
	}
	return Installation{}, false
}

// Names lists installation names in registry order.
func (r Registry) Names() []string {
	out := make([]string, 0, len(r))
	for _, inst := range r {
		out = append(out, inst.Name)
	}
	return out
}

// Translate adapts the installation for node. A node specific home replaces
// the default one, then environment references in the home are expanded.
func (i Installation) Translate(node string, env map[string]string) Installation {
	out := i
	if home, ok := i.Nodes[node]; ok && strings.TrimSpace(home) != "" {
		out.Home = home
	}
	out.Home = macro.Expand(out.Home, env)
	out.Nodes = nil
	return out
}

// Resolve looks up name and translates it for node.
func Resolve(reg Registry, name, node string, env map[string]string) (Installation, error) {
	inst, ok := reg.Lookup(name)
	if !ok {
		return Installation{}, fmt.Errorf("%w: name=%q node=%q", ErrNotFound, name, node)
	}
	inst = inst.Translate(node, env)
	if strings.TrimSpace(inst.Home) == "" {
		return inst, fmt.Errorf("%w: name=%q node=%q", ErrNoHome, name, node)
	}
	return inst, nil
}
