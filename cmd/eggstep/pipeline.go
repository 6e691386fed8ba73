package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bgricker/eggstep/internal/build"
	"github.com/bgricker/eggstep/internal/config"
	"github.com/bgricker/eggstep/internal/logging"
	"github.com/bgricker/eggstep/internal/report"
)

// errStepFailed marks a test failure as opposed to a configuration or
// runtime error.
var errStepFailed = errors.New("one or more steps failed")

// Environment variables a CI host sets for every build.
var (
	buildIDEnv  = []string{"BUILD_ID", "BUILD_NUMBER"}
	buildURLEnv = "BUILD_URL"
	nodeEnv     = "NODE_NAME"
)

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	workspace, err := resolveWorkspace(cmd)
	if err != nil {
		return config.Config{}, "", err
	}

	path, _ := cmd.Flags().GetString("config")
	var cfg config.Config
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(workspace)
	}
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)
	if cfg.Node == "" {
		cfg.Node = os.Getenv(nodeEnv)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, "", err
	}

	return cfg, workspace, nil
}

func resolveWorkspace(cmd *cobra.Command) (string, error) {
	ws, _ := cmd.Flags().GetString("workspace")
	if ws == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		ws = wd
	}
	abs, err := filepath.Abs(ws)
	if err != nil {
		return "", fmt.Errorf("resolve workspace %q: %w", ws, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("workspace %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace %q is not a directory", abs)
	}
	return abs, nil
}

// resolveBuildID prefers --build-id, then the CI environment. When generate
// is set a random id is returned as a last resort.
func resolveBuildID(cmd *cobra.Command, generate bool) (string, error) {
	if id, _ := cmd.Flags().GetString("build-id"); id != "" {
		return id, nil
	}
	for _, key := range buildIDEnv {
		if id := os.Getenv(key); id != "" {
			return id, nil
		}
	}
	if generate {
		return uuid.NewString(), nil
	}
	return "", errors.New("build id required; pass --build-id or set BUILD_ID")
}

func newBuild(cmd *cobra.Command, cfg config.Config, workspace string, log io.Writer) (*build.Build, error) {
	id, err := resolveBuildID(cmd, true)
	if err != nil {
		return nil, err
	}
	url, _ := cmd.Flags().GetString("build-url")
	if url == "" {
		url = os.Getenv(buildURLEnv)
	}

	b := build.New(id, url, workspace, log)
	b.Node = cfg.Node
	b.Env = build.EnvFromOS()

	raw, _ := cmd.Flags().GetStringArray("var")
	for _, kv := range raw {
		key, value, ok := cutPair(kv)
		if !ok || key == "" {
			return nil, fmt.Errorf("parse --var: expected KEY=VALUE, got %q", kv)
		}
		b.Vars[key] = value
	}
	return b, nil
}

func newStore(cfg config.Config, workspace string) *report.FileStore {
	dir := cfg.StateDir
	if dir == "" {
		dir = config.DefaultStateDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(workspace, dir)
	}
	return report.NewFileStore(dir)
}

func newLogger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
}

func cutPair(raw string) (string, string, bool) {
	key, value, ok := strings.Cut(raw, "=")
	return strings.TrimSpace(key), value, ok
}
