// Package parser reads eggPlant RunHistory.csv artifacts into result records.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/bgricker/eggstep/internal/report"
)

// Source describes where an artifact came from and the build it belongs to.
type Source struct {
	Path     string
	Script   string
	SUT      string
	BuildURL string
	RunID    string
}

// Parser turns one artifact into zero or more records.
type Parser interface {
	Parse(r io.Reader, src Source) ([]report.Record, error)
}

// ParseFile opens src.Path and parses it with p.
func ParseFile(p Parser, src Source) ([]report.Record, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("open results %q: %w", src.Path, err)
	}
	defer f.Close()
	return p.Parse(f, src)
}

// CSVParser reads the RunHistory.csv layout. Columns are located by header
// name; files without a recognised header use the default column order.
type CSVParser struct{}

// NewCSVParser returns the default parser.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

type column int

const (
	colRunDate column = iota
	colStatus
	colDuration
	colErrors
	colWarnings
	colExceptions
	colLogFile
	colErrorMessage
	numColumns
)

var headerAliases = map[string]column{
	"rundate":      colRunDate,
	"date":         colRunDate,
	"time":         colRunDate,
	"status":       colStatus,
	"result":       colStatus,
	"duration":     colDuration,
	"errors":       colErrors,
	"warnings":     colWarnings,
	"exceptions":   colExceptions,
	"logfile":      colLogFile,
	"errormessage": colErrorMessage,
	"message":      colErrorMessage,
}

var passStatuses = map[string]struct{}{
	"success": {},
	"pass":    {},
	"passed":  {},
}

// Parse implements Parser.
func (p *CSVParser) Parse(r io.Reader, src Source) ([]report.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse results %q: %w", src.Path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	layout, hasHeader := headerLayout(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	records := make([]report.Record, 0, len(rows))
	for idx, row := range rows {
		if blankRow(row) {
			continue
		}
		rec, err := decodeRow(row, layout, src, idx+1)
		if err != nil {
			return records, fmt.Errorf("parse results %q row %d: %w", src.Path, idx+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

var errNoStatus = errors.New("missing status column")

func decodeRow(row []string, layout [numColumns]int, src Source, rowNum int) (report.Record, error) {
	field := func(c column) string {
		i := layout[c]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	status := field(colStatus)
	if status == "" {
		return report.Record{}, errNoStatus
	}
	_, passed := passStatuses[strings.ToLower(status)]

	duration := parseDuration(field(colDuration))
	detail := report.Detail{
		RunDate:      field(colRunDate),
		Status:       status,
		Duration:     duration,
		DurationMS:   duration.Milliseconds(),
		Errors:       parseCount(field(colErrors)),
		Warnings:     parseCount(field(colWarnings)),
		Exceptions:   parseCount(field(colExceptions)),
		LogFile:      field(colLogFile),
		ErrorMessage: strings.TrimSpace(stripansi.Strip(field(colErrorMessage))),
		SUT:          src.SUT,
		BuildURL:     src.BuildURL,
		Link:         link(src.BuildURL, src.Script, rowNum),
		RunID:        src.RunID,
		Source:       src.Path,
	}
	return report.Record{TestName: src.Script, Passed: passed, Detail: detail}, nil
}

func headerLayout(first []string) ([numColumns]int, bool) {
	var layout [numColumns]int
	for i := range layout {
		layout[i] = -1
	}
	matched := false
	for i, name := range first {
		key := normalizeHeader(name)
		if c, ok := headerAliases[key]; ok && layout[c] < 0 {
			layout[c] = i
			matched = true
		}
	}
	if matched && layout[colStatus] >= 0 {
		return layout, true
	}
	for i := range layout {
		layout[i] = i
	}
	return layout, false
}

func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// parseDuration accepts seconds ("12.5") or a Go duration ("1m3s").
func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return 0
}

func parseCount(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func link(buildURL, script string, row int) string {
	if buildURL == "" {
		return ""
	}
	if !strings.HasSuffix(buildURL, "/") {
		buildURL += "/"
	}
	return fmt.Sprintf("%seggplant/%s/%d", buildURL, url.PathEscape(script), row)
}
