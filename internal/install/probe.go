package install

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNotExecutable reports a home that exists but cannot be run.
var ErrNotExecutable = errors.New("install: not executable")

// Check verifies that the translated home of i points at something the
// process launcher can start. Bare command names are searched on PATH.
func Check(i Installation) (string, error) {
	home := i.Home
	if home == "" {
		return "", ErrNoHome
	}
	if !filepath.IsAbs(home) && filepath.Base(home) == home {
		path, err := exec.LookPath(home)
		if err != nil {
			return "", fmt.Errorf("lookup %q: %w", home, err)
		}
		return path, nil
	}

	info, err := os.Stat(home)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", home, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %q is a directory", ErrNotExecutable, home)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("%w: %q", ErrNotExecutable, home)
	}
	return home, nil
}
