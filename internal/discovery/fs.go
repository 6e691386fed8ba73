package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResultsFileName is the artifact eggPlant writes for every executed script.
const ResultsFileName = "RunHistory.csv"

// Artifact is one discovered results file.
type Artifact struct {
	// Path is absolute, or as given when root was relative.
	Path string
	// Rel is Path relative to the searched root.
	Rel string
}

// Script returns the name of the directory holding the artifact. eggPlant
// names that directory after the script that produced it.
func (a Artifact) Script() string {
	return filepath.Base(filepath.Dir(a.Path))
}

// Results walks root at any depth and returns every file named
// RunHistory.csv, sorted by relative path. Finding none is not an error.
// Unreadable subdirectories are skipped.
func Results(root string) ([]Artifact, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("workspace %q not found", root)
		}
		return nil, fmt.Errorf("stat workspace %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %q is not a directory", root)
	}

	var found []Artifact
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != root && errors.Is(err, fs.ErrPermission) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || d.Name() != ResultsFileName {
			return nil
		}
		found = append(found, Artifact{Path: path, Rel: mustRelOrClean(root, path)})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk workspace %q: %w", root, walkErr)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Rel < found[j].Rel })
	return found, nil
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return filepath.ToSlash(rel)
}
