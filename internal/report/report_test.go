package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		records  []Record
		exitCode int
		want     Outcome
		failed   int
	}{
		{"empty accumulator fails", nil, 0, OutcomeFailure, 0},
		{"one failing record fails", []Record{{TestName: "t1", Passed: true}, {TestName: "t2", Passed: false}}, 0, OutcomeFailure, 1},
		{"all passing succeeds", []Record{{TestName: "t1", Passed: true}, {TestName: "t2", Passed: true}}, 0, OutcomeSuccess, 0},
		{"non-zero exit fails", []Record{{TestName: "t1", Passed: true}}, 3, OutcomeFailure, 0},
		{"every record is counted", []Record{{Passed: false}, {Passed: true}, {Passed: false}}, 0, OutcomeFailure, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Evaluate(tt.records, tt.exitCode)
			assert.Equal(t, tt.want, s.Outcome)
			assert.Equal(t, len(tt.records), s.Total)
			assert.Equal(t, tt.failed, s.Failed)
			assert.Equal(t, s.Total, s.Passed+s.Failed)
		})
	}
}

func TestMemoryStoreAttachIsIdempotent(t *testing.T) {
	store := NewMemoryStore()

	first, err := store.Attach("42")
	require.NoError(t, err)
	first.Append(Record{TestName: "a", Passed: true})
	require.NoError(t, store.Save(first))

	second, err := store.Attach("42")
	require.NoError(t, err)
	assert.Same(t, first, second)
	second.Append(Record{TestName: "b", Passed: true})
	assert.Equal(t, 2, first.Len())

	other, err := store.Attach("43")
	require.NoError(t, err)
	assert.Zero(t, other.Len())
}

func TestFileStoreRoundTripAppends(t *testing.T) {
	store := NewFileStore(t.TempDir())

	acc, err := store.Attach("7")
	require.NoError(t, err)
	assert.Zero(t, acc.Len())
	acc.Append(Record{TestName: "Login", Passed: true, Detail: Detail{Status: "Success", Duration: 1500 * time.Millisecond, DurationMS: 1500}})
	acc.RecordExit(3)
	require.NoError(t, store.Save(acc))

	again, err := store.Attach("7")
	require.NoError(t, err)
	require.Equal(t, 1, again.Len())
	assert.Equal(t, "Login", again.Records[0].TestName)
	assert.Equal(t, int64(1500), again.Records[0].Detail.DurationMS)
	assert.Equal(t, 1500*time.Millisecond, again.Records[0].Detail.Duration)
	assert.Equal(t, 3, again.ExitCode)

	again.Append(Record{TestName: "Logout", Passed: false})
	require.NoError(t, store.Save(again))

	loaded, err := store.Load("7")
	require.NoError(t, err)
	assert.Equal(t, []string{"Login", "Logout"}, []string{loaded.Records[0].TestName, loaded.Records[1].TestName})
}

func TestAccumulatorRecordExitKeepsFirstFailure(t *testing.T) {
	acc := NewAccumulator("5")
	acc.RecordExit(0)
	assert.Zero(t, acc.ExitCode)
	acc.RecordExit(4)
	acc.RecordExit(0)
	acc.RecordExit(9)
	assert.Equal(t, 4, acc.ExitCode)
	assert.Equal(t, OutcomeFailure, Evaluate([]Record{{Passed: true}}, acc.ExitCode).Outcome)
}

func TestFileStoreRejectsPathBuildID(t *testing.T) {
	store := NewFileStore(t.TempDir())
	for _, id := range []string{"", "../x", "a/b"} {
		_, err := store.Attach(id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	store := NewFileStore(t.TempDir())
	path := store.Path("9")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := store.Attach("9")
	assert.Error(t, err)
}
