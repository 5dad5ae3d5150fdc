package harness

// This file contains harness process execution: the external test runner is
// started in its working directory, its output is captured, and the call is
// bounded by a wall-clock timeout.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/acarl005/stripansi"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds a harness run when no timeout is configured.
	DefaultTimeout = 5 * time.Minute

	stderrTailBytes = 4096
	waitDelay       = 2 * time.Second
)

// Output is the captured result of one harness process.
type Output struct {
	Stdout []byte
	// Tail of standard error, ANSI sequences stripped
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner starts the harness process.
type Runner struct {
	logger  zerolog.Logger
	dir     string
	command []string
	timeout time.Duration
}

// NewRunner creates a runner executing command inside dir.
func NewRunner(logger zerolog.Logger, dir string, command []string, timeout time.Duration) (*Runner, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("harness command cannot be empty")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		logger:  logger,
		dir:     dir,
		command: command,
		timeout: timeout,
	}, nil
}

// String returns the harness command line, quoted for a POSIX shell.
func (r *Runner) String() string {
	parts := make([]string, 0, len(r.command))
	for _, arg := range r.command {
		parts = append(parts, shellescape.Quote(arg))
	}
	return strings.Join(parts, " ")
}

// Dir returns the harness working directory.
func (r *Runner) Dir() string {
	return r.dir
}

// Run executes the harness synchronously.
//
// A non-zero exit status is not an error: harnesses exit non-zero when tests
// fail, so the exit code is reported in Output and classified by the caller.
// Errors are *TimeoutError when the time budget is exhausted, *CrashError when
// the process could not be run, or the parent context's error when the caller
// cancelled.
func (r *Runner) Run(ctx context.Context) (*Output, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.command[0], r.command[1:]...)
	cmd.Dir = r.dir
	cmd.WaitDelay = waitDelay

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	r.logger.Debug().
		Str("command", r.String()).
		Str("dir", r.dir).
		Dur("timeout", r.timeout).
		Msg("Starting harness")

	start := time.Now()
	err := cmd.Run()

	out := &Output{
		Stdout:   stdoutBuf.Bytes(),
		Stderr:   tail(stderrBuf.Bytes(), stderrTailBytes),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		return out, fmt.Errorf("harness interrupted: %w", ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		out.ExitCode = -1
		r.logger.Warn().Dur("timeout", r.timeout).Msg("Harness timed out")
		return out, &TimeoutError{Timeout: r.timeout}
	}

	if err != nil {
		exitErr := &exec.ExitError{}
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			r.logger.Info().
				Int("exit_code", out.ExitCode).
				Dur("duration", out.Duration).
				Msg("Harness completed with failures")
			return out, nil
		}
		out.ExitCode = -1
		return out, &CrashError{ExitCode: -1, Stderr: out.Stderr, Err: err}
	}

	r.logger.Info().Dur("duration", out.Duration).Msg("Harness completed successfully")
	return out, nil
}

// tail keeps the last n bytes of b as clean text.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(stripansi.Strip(strings.ToValidUTF8(string(b), "")))
}
