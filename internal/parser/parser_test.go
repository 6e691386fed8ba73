package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const historyCSV = `RunDate,Status,Duration,Errors,Warnings,Exceptions,LogFile,ErrorMessage
2024-03-01 10:15:02 +0000,Success,12.5,0,1,0,Results/Login/20240301_101502/LogFile.txt,
2024-03-02 10:15:02 +0000,Failure,3,2,0,1,Results/Login/20240302_101502/LogFile.txt,"` + "\x1b[31mImage not found\x1b[0m" + `: LoginButton"
`

func src() Source {
	return Source{
		Path:     "/ws/Results/Login/RunHistory.csv",
		Script:   "Login",
		SUT:      "10.0.0.5",
		BuildURL: "job/gui-tests/12/",
		RunID:    "run-1",
	}
}

func TestCSVParserHeader(t *testing.T) {
	records, err := NewCSVParser().Parse(strings.NewReader(historyCSV), src())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Login", first.TestName)
	assert.True(t, first.Passed)
	assert.Equal(t, "Success", first.Detail.Status)
	assert.Equal(t, 12500*time.Millisecond, first.Detail.Duration)
	assert.Equal(t, int64(12500), first.Detail.DurationMS)
	assert.Equal(t, 1, first.Detail.Warnings)
	assert.Equal(t, "10.0.0.5", first.Detail.SUT)
	assert.Equal(t, "job/gui-tests/12/eggplant/Login/1", first.Detail.Link)
	assert.Equal(t, "run-1", first.Detail.RunID)

	second := records[1]
	assert.False(t, second.Passed)
	assert.Equal(t, 2, second.Detail.Errors)
	assert.Equal(t, 1, second.Detail.Exceptions)
	assert.Equal(t, "Image not found: LoginButton", second.Detail.ErrorMessage)
}

func TestCSVParserReorderedHeader(t *testing.T) {
	in := "Status , Log File,Duration\nPASS,log.txt,1m30s\n"
	records, err := NewCSVParser().Parse(strings.NewReader(in), src())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Passed)
	assert.Equal(t, "log.txt", records[0].Detail.LogFile)
	assert.Equal(t, 90*time.Second, records[0].Detail.Duration)
}

func TestCSVParserNoHeader(t *testing.T) {
	in := "2024-03-01,Error,1.0,1,0,0,log.txt,connection lost\n"
	records, err := NewCSVParser().Parse(strings.NewReader(in), src())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Passed)
	assert.Equal(t, "connection lost", records[0].Detail.ErrorMessage)
}

func TestCSVParserEmptyAndHeaderOnly(t *testing.T) {
	for _, in := range []string{"", "RunDate,Status,Duration\n", "Status\n\n\n"} {
		records, err := NewCSVParser().Parse(strings.NewReader(in), src())
		require.NoError(t, err)
		assert.Empty(t, records)
	}
}

func TestCSVParserMissingStatus(t *testing.T) {
	in := "RunDate,Status\n2024-03-01,Success\n2024-03-02,\n"
	records, err := NewCSVParser().Parse(strings.NewReader(in), src())
	assert.Error(t, err)
	assert.Len(t, records, 1, "records decoded before the bad row are returned")
}

func TestCSVParserNoBuildURL(t *testing.T) {
	s := src()
	s.BuildURL = ""
	records, err := NewCSVParser().Parse(strings.NewReader("Status\nSuccess\n"), s)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Detail.Link)
}

func TestParseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "My Script")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "RunHistory.csv")
	require.NoError(t, os.WriteFile(path, []byte(historyCSV), 0o644))

	s := src()
	s.Path = path
	s.Script = "My Script"
	s.BuildURL = "https://ci.example.com/job/gui/3"
	records, err := ParseFile(NewCSVParser(), s)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "https://ci.example.com/job/gui/3/eggplant/My%20Script/2", records[1].Detail.Link)

	s.Path = filepath.Join(dir, "missing.csv")
	_, err = ParseFile(NewCSVParser(), s)
	assert.Error(t, err)
}
