package filter

import (
	"testing"

	"github.com/bgricker/eggstep/internal/report"
)

func sampleRecords() []report.Record {
	return []report.Record{
		{TestName: "Login", Passed: true},
		{TestName: "Logout", Passed: false},
		{TestName: "Checkout", Passed: false},
		{TestName: "LoginSSO", Passed: true},
	}
}

func TestRecordsBySubstring(t *testing.T) {
	patterns, err := Compile([]string{"login"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	got := Records(sampleRecords(), Options{Tests: patterns})
	if len(got) != 2 || got[0].TestName != "Login" || got[1].TestName != "LoginSSO" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestRecordsByRegexAndFailedOnly(t *testing.T) {
	patterns, err := Compile([]string{"/^Log/"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	got := Records(sampleRecords(), Options{Tests: patterns, FailedOnly: true})
	if len(got) != 1 || got[0].TestName != "Logout" {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestRecordsNoFilters(t *testing.T) {
	got := Records(sampleRecords(), Options{})
	if len(got) != 4 {
		t.Fatalf("expected all records, got %d", len(got))
	}
	if Records(nil, Options{FailedOnly: true}) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile([]string{"/[unclosed/"}); err == nil {
		t.Fatalf("expected regexp compile error")
	}
	patterns, err := Compile([]string{"", "  ", "x"})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(patterns) != 1 || patterns[0].String() != "x" {
		t.Fatalf("expected blank patterns skipped, got %+v", patterns)
	}
}
