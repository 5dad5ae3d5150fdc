package rubric

import (
	"fmt"

	"github.com/autograde/autograde/model"
	"github.com/rs/zerolog"
)

// Completed returns the events describing finished tests, in stream order.
func Completed(events []model.RawEvent) []model.RawEvent {
	completed := make([]model.RawEvent, 0, len(events))
	for _, ev := range events {
		if ev.Completed() {
			completed = append(completed, ev)
		}
	}
	return completed
}

// Build parses the completed tests of a harness run and aggregates them.
func Build(events []model.RawEvent, logger zerolog.Logger) (*model.Result, error) {
	completed := Completed(events)

	tests := make([]model.ParsedTest, 0, len(completed))
	var warnings []string
	for _, ev := range completed {
		test, err := ParseEvent(ev, logger)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ev.Line, err)
		}
		if _, known := decodeStatus(ev.Status); !known {
			warnings = append(warnings, fmt.Sprintf("test %q of suite %q has unexpected status %q", test.Name, test.Suite, ev.Status))
		}
		tests = append(tests, test)
	}

	res, err := Aggregate(tests)
	if err != nil {
		return nil, err
	}
	res.Warnings = warnings
	return res, nil
}

// Aggregate groups tests into suites and computes subtotals and totals.
//
// Suites are grouped by adjacency: a suite name that reappears after another
// suite opens a new block instead of being merged with the earlier one.
func Aggregate(tests []model.ParsedTest) (*model.Result, error) {
	if len(tests) == 0 {
		return nil, &EmptyResultError{}
	}

	res := &model.Result{Name: tests[0].Report}
	var current *model.Suite

	flush := func() {
		if current == nil {
			return
		}
		res.Possible += current.Possible
		res.Earned += current.Earned
		res.Suites = append(res.Suites, *current)
	}

	for _, test := range tests {
		if test.Report != res.Name {
			return nil, &ReportNameMismatchError{Want: res.Name, Got: test.Report, Test: test.Name}
		}

		if current == nil || test.Suite != current.Name {
			flush()
			current = &model.Suite{Name: test.Suite}
		}

		current.Possible += test.Points
		current.Earned += test.Earned()
		current.Tests = append(current.Tests, test)
	}
	flush()

	return res, nil
}
