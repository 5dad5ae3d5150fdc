package harness

import (
	"errors"
	"fmt"
	"time"
)

// DecodeError reports harness output that is not a stream of JSON objects.
type DecodeError struct {
	// Line number (1-based) of the offending line
	Line int
	// Offending line, ANSI sequences stripped and truncated
	Text string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("invalid harness output at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("invalid harness output at line %d: %v: %q", e.Line, e.Err, e.Text)
}

// Unwrap implements the errors.Unwrap interface
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// CrashError reports a harness process that failed without producing test results.
type CrashError struct {
	// Exit code of the process, -1 if it could not be started
	ExitCode int
	// Tail of the process's standard error
	Stderr string
	Err    error
}

func (e *CrashError) Error() string {
	msg := fmt.Sprintf("harness crashed with exit code %d", e.ExitCode)
	if e.ExitCode < 0 {
		msg = "harness could not be started"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *CrashError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a harness process killed after exceeding its time budget.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("harness did not finish within %s", e.Timeout)
}

// IsDecodeError checks if the error is or wraps a DecodeError
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return err != nil && errors.As(err, &decodeErr)
}

// IsCrashError checks if the error is or wraps a CrashError
func IsCrashError(err error) bool {
	var crashErr *CrashError
	return err != nil && errors.As(err, &crashErr)
}

// IsTimeoutError checks if the error is or wraps a TimeoutError
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return err != nil && errors.As(err, &timeoutErr)
}
