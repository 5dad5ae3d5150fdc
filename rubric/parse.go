package rubric

// parse.go reads rendered reports back, so that the score of a submission
// graded in an earlier run can be recovered from its report file.

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	totalLineRe    = regexp.MustCompile(`^(?:(.*) )?Total Score: (\S+)(?: / (\S+))?$`)
	suiteLineRe    = regexp.MustCompile(`^Test Suite: (.*)$`)
	subtotalLineRe = regexp.MustCompile(`^\s*Subtotal: (\S+) / (\S+)$`)
)

// Summary is the score information contained in a report.
type Summary struct {
	Name     string
	Earned   float64
	Possible float64
	Suites   []SuiteSummary
	// Reason of a zero-score report
	Reason string
}

// SuiteSummary is one subtotal line of a report.
type SuiteSummary struct {
	Name     string
	Earned   float64
	Possible float64
}

// ParseReport extracts totals and subtotals from report text.
func ParseReport(text string) (*Summary, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("empty report")
	}

	m := totalLineRe.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if m == nil {
		return nil, fmt.Errorf("invalid report header %q", lines[0])
	}

	summary := &Summary{Name: m[1]}
	var ok bool
	if summary.Earned, ok = ParsePoints(m[2]); !ok {
		return nil, fmt.Errorf("invalid total score %q", m[2])
	}
	if m[3] != "" {
		if summary.Possible, ok = ParsePoints(m[3]); !ok {
			return nil, fmt.Errorf("invalid possible score %q", m[3])
		}
	}

	currentSuite := ""
	for _, line := range lines[1:] {
		if reason, found := strings.CutPrefix(line, "Reason: "); found {
			summary.Reason = reason
			continue
		}
		if sm := suiteLineRe.FindStringSubmatch(line); sm != nil {
			currentSuite = sm[1]
			continue
		}
		if sm := subtotalLineRe.FindStringSubmatch(line); sm != nil {
			earned, ok1 := ParsePoints(sm[1])
			possible, ok2 := ParsePoints(sm[2])
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("invalid subtotal line %q", line)
			}
			summary.Suites = append(summary.Suites, SuiteSummary{
				Name:     currentSuite,
				Earned:   earned,
				Possible: possible,
			})
		}
	}

	return summary, nil
}
