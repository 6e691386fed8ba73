package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bgricker/eggstep/internal/args"
	"github.com/bgricker/eggstep/internal/install"
)

// Config captures CLI options sourced from config files or flags.
type Config struct {
	Installations install.Registry `yaml:"installations" toml:"installations"`
	Steps         []args.Params    `yaml:"steps" toml:"steps"`

	Node        string `yaml:"node" toml:"node"`
	Format      string `yaml:"format" toml:"format"`
	LogLevel    string `yaml:"log_level" toml:"log_level"`
	MetricsFile string `yaml:"metrics_file" toml:"metrics_file"`
	StateDir    string `yaml:"state_dir" toml:"state_dir"`
}

const (
	// FileYAML is the preferred config file name.
	FileYAML = ".eggstep.yml"
	// FileTOML is read when no YAML file exists.
	FileTOML = ".eggstep.toml"

	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	// DefaultStateDir holds accumulated results, relative to the workspace.
	DefaultStateDir = ".eggstep"
)

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		Format:   FormatPretty,
		StateDir: DefaultStateDir,
	}
}

// Load reads .eggstep.yml, or .eggstep.toml when the former is absent, from
// root. Missing files are ignored.
func Load(root string) (Config, error) {
	for _, name := range []string{FileYAML, FileTOML} {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Default(), fmt.Errorf("read config %q: %w", path, err)
		}
		return LoadFile(path)
	}
	return Default(), nil
}

// LoadFile reads an explicit config file. The format follows the extension.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base

	if len(override.Installations) > 0 {
		out.Installations = append(install.Registry{}, override.Installations...)
	}
	if len(override.Steps) > 0 {
		out.Steps = append([]args.Params{}, override.Steps...)
	}
	if override.Node != "" {
		out.Node = override.Node
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.LogLevel != "" {
		out.LogLevel = override.LogLevel
	}
	if override.MetricsFile != "" {
		out.MetricsFile = override.MetricsFile
	}
	if override.StateDir != "" {
		out.StateDir = override.StateDir
	}

	return out
}

// Validate reports configuration that cannot run. Repeated installation names
// are allowed; lookups use the first entry with a name.
func (c Config) Validate() error {
	switch c.Format {
	case FormatPretty, FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	for i, inst := range c.Installations {
		if strings.TrimSpace(inst.Name) == "" {
			return fmt.Errorf("installation %d: name is required", i+1)
		}
	}
	return nil
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
// An explicit script replaces the configured steps with one step built from
// the step flags; otherwise step flags override every configured step.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Node.Set {
		cfg.Node = flags.Node.Value
	}
	if flags.Format.Set {
		cfg.Format = strings.ToLower(flags.Format.Value)
	}
	if flags.LogLevel.Set {
		cfg.LogLevel = flags.LogLevel.Value
	}
	if flags.MetricsFile.Set {
		cfg.MetricsFile = flags.MetricsFile.Value
	}
	if flags.StateDir.Set {
		cfg.StateDir = flags.StateDir.Value
	}
	for _, raw := range flags.Installations.Values {
		name, home, _ := strings.Cut(raw, "=")
		cfg.Installations = upsert(cfg.Installations, install.Installation{Name: name, Home: home})
	}

	if flags.Step.Script.Set {
		p := args.Params{}
		flags.Step.apply(&p)
		cfg.Steps = []args.Params{p}
		return
	}
	for i := range cfg.Steps {
		flags.Step.apply(&cfg.Steps[i])
	}
}

func upsert(reg install.Registry, inst install.Installation) install.Registry {
	for i := range reg {
		if reg[i].Name == inst.Name {
			reg[i].Home = inst.Home
			return reg
		}
	}
	return append(reg, inst)
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Node          StringFlag
	Format        StringFlag
	LogLevel      StringFlag
	MetricsFile   StringFlag
	StateDir      StringFlag
	Installations SliceFlag
	Step          StepFlags
}

// StepFlags are the per step parameters settable from the command line.
type StepFlags struct {
	Script                   StringFlag
	Installation             StringFlag
	Host                     StringFlag
	Port                     StringFlag
	Password                 StringFlag
	ColorDepth               StringFlag
	GlobalResultsFolder      StringFlag
	DefaultDocumentDirectory StringFlag
	Params                   StringFlag
	ReportFailures           BoolFlag
	CommandLineOutput        BoolFlag
}

func (s StepFlags) apply(p *args.Params) {
	setString(&p.Script, s.Script)
	setString(&p.Installation, s.Installation)
	setString(&p.Host, s.Host)
	setString(&p.Port, s.Port)
	setString(&p.Password, s.Password)
	setString(&p.ColorDepth, s.ColorDepth)
	setString(&p.GlobalResultsFolder, s.GlobalResultsFolder)
	setString(&p.DefaultDocumentDirectory, s.DefaultDocumentDirectory)
	setString(&p.Params, s.Params)
	if s.ReportFailures.Set {
		p.ReportFailures = s.ReportFailures.Value
	}
	if s.CommandLineOutput.Set {
		p.CommandLineOutput = s.CommandLineOutput.Value
	}
}

func setString(dst *string, f StringFlag) {
	if f.Set {
		*dst = f.Value
	}
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
