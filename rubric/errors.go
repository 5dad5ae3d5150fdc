package rubric

import (
	"errors"
	"fmt"
)

// InvalidLabelError reports a completed test without the three-part label hierarchy.
type InvalidLabelError struct {
	Labels []string
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("invalid test labels: expected [report, suite, test@points], got %d label(s) %q",
		len(e.Labels), e.Labels)
}

// InvalidTestNameError reports a test name that does not follow the name@points convention.
type InvalidTestNameError struct {
	Name string
}

func (e *InvalidTestNameError) Error() string {
	return fmt.Sprintf("invalid test name %q: must be of the form name@points", e.Name)
}

// InvalidPointsError reports a point value that is not a non-negative number.
type InvalidPointsError struct {
	Name   string
	Points string
}

func (e *InvalidPointsError) Error() string {
	return fmt.Sprintf("invalid points %q in test name %q: must be a non-negative number", e.Points, e.Name)
}

// EmptyResultError reports a harness run without a single completed test.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string {
	return "no completed tests in harness output"
}

// ReportNameMismatchError reports completed tests disagreeing on the report name.
type ReportNameMismatchError struct {
	Want string
	Got  string
	Test string
}

func (e *ReportNameMismatchError) Error() string {
	return fmt.Sprintf("test %q belongs to report %q, expected %q", e.Test, e.Got, e.Want)
}

// MissingTestError reports a rubric document entry without a matching test result.
type MissingTestError struct {
	Suite string
	Test  string
}

func (e *MissingTestError) Error() string {
	return fmt.Sprintf("no result for test %q of suite %q", e.Test, e.Suite)
}

// IsEmptyResultError checks if the error is or wraps an EmptyResultError
func IsEmptyResultError(err error) bool {
	var emptyErr *EmptyResultError
	return err != nil && errors.As(err, &emptyErr)
}

// IsLabelError checks if the error is or wraps one of the label validation errors.
func IsLabelError(err error) bool {
	var (
		labelErr  *InvalidLabelError
		nameErr   *InvalidTestNameError
		pointsErr *InvalidPointsError
	)
	return err != nil && (errors.As(err, &labelErr) || errors.As(err, &nameErr) || errors.As(err, &pointsErr))
}
