package report

import "time"

// Outcome is the overall verdict of the gathered results.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Record is one eggPlant test outcome.
type Record struct {
	TestName string `json:"test_name"`
	Passed   bool   `json:"passed"`
	Detail   Detail `json:"detail"`
}

// Detail holds the tool specific fields of a record.
type Detail struct {
	RunDate      string        `json:"run_date,omitempty"`
	Status       string        `json:"status,omitempty"`
	Duration     time.Duration `json:"duration"`
	DurationMS   int64         `json:"duration_ms"`
	Errors       int           `json:"errors"`
	Warnings     int           `json:"warnings"`
	Exceptions   int           `json:"exceptions"`
	LogFile      string        `json:"log_file,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	SUT          string        `json:"sut,omitempty"`
	BuildURL     string        `json:"build_url,omitempty"`
	Link         string        `json:"link,omitempty"`
	RunID        string        `json:"run_id,omitempty"`
	Source       string        `json:"source,omitempty"`
}

// Summary aggregates an accumulator.
type Summary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	ExitCode int     `json:"exit_code"`
	Outcome  Outcome `json:"outcome"`
}

// Evaluate visits every record and derives the outcome. It succeeds only when
// there is at least one record, every record passed and exitCode is zero.
func Evaluate(records []Record, exitCode int) Summary {
	s := Summary{Total: len(records), ExitCode: exitCode}
	for _, r := range records {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	s.Outcome = OutcomeFailure
	if s.Total > 0 && s.Failed == 0 && exitCode == 0 {
		s.Outcome = OutcomeSuccess
	}
	return s
}
