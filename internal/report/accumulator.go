// Package report holds eggPlant result records and the per build
// accumulator they are gathered into.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Accumulator is the append-only record list of one build. It is not safe
// for concurrent writers. ExitCode is the first non-zero process exit seen
// by any step of the build.
type Accumulator struct {
	BuildID  string   `json:"build_id"`
	ExitCode int      `json:"exit_code"`
	Records  []Record `json:"records"`
}

// NewAccumulator returns an empty accumulator for buildID.
func NewAccumulator(buildID string) *Accumulator {
	return &Accumulator{BuildID: buildID, Records: []Record{}}
}

// Append adds records in order.
func (a *Accumulator) Append(records ...Record) {
	a.Records = append(a.Records, records...)
}

// RecordExit keeps code when no earlier step exited non-zero.
func (a *Accumulator) RecordExit(code int) {
	if a.ExitCode == 0 {
		a.ExitCode = code
	}
}

// Len returns the number of records.
func (a *Accumulator) Len() int {
	return len(a.Records)
}

// Store attaches accumulators to builds.
type Store interface {
	// Attach returns the accumulator already attached to buildID or attaches
	// a new empty one.
	Attach(buildID string) (*Accumulator, error)
	// Save persists acc.
	Save(acc *Accumulator) error
}

// MemoryStore keeps accumulators for the lifetime of the process.
type MemoryStore struct {
	mu   sync.Mutex
	accs map[string]*Accumulator
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accs: make(map[string]*Accumulator)}
}

// Attach implements Store.
func (m *MemoryStore) Attach(buildID string) (*Accumulator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accs[buildID]; ok {
		return acc, nil
	}
	acc := NewAccumulator(buildID)
	m.accs[buildID] = acc
	return acc, nil
}

// Save implements Store. Attached accumulators are shared pointers, so there
// is nothing to write.
func (m *MemoryStore) Save(acc *Accumulator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accs[acc.BuildID] = acc
	return nil
}

// FileStore persists one JSON document per build under Root.
type FileStore struct {
	Root string
}

// NewFileStore returns a store rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

// ResultsFile is the name of the persisted accumulator document.
const ResultsFile = "results.json"

// Path returns the document path for buildID.
func (f *FileStore) Path(buildID string) string {
	return filepath.Join(f.Root, "builds", buildID, ResultsFile)
}

// Attach implements Store.
func (f *FileStore) Attach(buildID string) (*Accumulator, error) {
	if buildID == "" || buildID != filepath.Base(buildID) {
		return nil, fmt.Errorf("invalid build id %q", buildID)
	}
	acc, err := f.Load(buildID)
	if errors.Is(err, os.ErrNotExist) {
		return NewAccumulator(buildID), nil
	}
	return acc, err
}

// Load reads the accumulator of buildID. A missing document yields an error
// wrapping os.ErrNotExist.
func (f *FileStore) Load(buildID string) (*Accumulator, error) {
	path := f.Path(buildID)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results %q: %w", path, err)
	}
	var acc Accumulator
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, fmt.Errorf("parse results %q: %w", path, err)
	}
	if acc.BuildID == "" {
		acc.BuildID = buildID
	}
	if acc.Records == nil {
		acc.Records = []Record{}
	}
	return &acc, nil
}

// Save implements Store. The document is written to a temporary file and
// renamed into place.
func (f *FileStore) Save(acc *Accumulator) error {
	path := f.Path(acc.BuildID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	data, err := json.MarshalIndent(acc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write results %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write results %q: %w", path, err)
	}
	return nil
}
