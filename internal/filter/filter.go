package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/eggstep/internal/report"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. A pattern
// wrapped in slashes is a regular expression, anything else a case
// insensitive substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.raw
}

// Options select records. Empty pattern lists match everything.
type Options struct {
	Tests      []Pattern
	FailedOnly bool
}

// Records returns the records selected by opts, preserving order.
func Records(records []report.Record, opts Options) []report.Record {
	if len(records) == 0 {
		return nil
	}
	result := make([]report.Record, 0, len(records))
	for _, rec := range records {
		if opts.FailedOnly && rec.Passed {
			continue
		}
		if len(opts.Tests) > 0 && !matchesAny(rec.TestName, opts.Tests) {
			continue
		}
		result = append(result, rec)
	}
	return result
}

func matchesAny(s string, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(s) {
			return true
		}
	}
	return false
}
