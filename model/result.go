package model

import "time"

// ParsedTest is a completed test whose label has been validated and decomposed.
type ParsedTest struct {
	Report string
	Suite  string
	Name   string
	Points float64
	Passed bool
}

// Earned returns the points awarded for the test.
func (t ParsedTest) Earned() float64 {
	if t.Passed {
		return t.Points
	}
	return 0
}

// Suite is a contiguous run of tests sharing a suite name.
type Suite struct {
	Name     string
	Tests    []ParsedTest
	Possible float64
	Earned   float64
}

// Result is the aggregation of one harness run.
type Result struct {
	// Report name, taken from the first label of the first completed test
	Name string
	// Suite blocks in discovery order
	Suites   []Suite
	Possible float64
	Earned   float64
	// Diagnostics for events with an unexpected status
	Warnings []string
}

// Report is the rubric artifact produced for one submission.
type Report struct {
	Text     string
	Score    float64
	Possible float64
	// Reason is set only for zero-score reports
	Reason string
	// Err is the classified failure behind a zero-score report
	Err error
	// Warnings raised while parsing the harness output
	Warnings []string
	// Harness process details, nil when the harness never ran
	Run *HarnessRun
}

// HarnessRun describes one harness process.
type HarnessRun struct {
	// Shell-quoted command line
	Command  string
	ExitCode int
	Stdout   []byte
	// Tail of standard error
	Stderr   string
	Duration time.Duration
}

// Zero reports whether the report is a synthetic zero-score artifact.
func (r *Report) Zero() bool {
	return r.Reason != ""
}
