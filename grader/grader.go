// Package grader runs one grading invocation: it stages the tests and the
// submission files, runs the harness, turns its output into a rubric report
// and removes the staged files again.
package grader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/autograde/autograde/config"
	"github.com/autograde/autograde/harness"
	"github.com/autograde/autograde/metrics"
	"github.com/autograde/autograde/model"
	"github.com/autograde/autograde/rubric"
	"github.com/rs/zerolog"
)

// Request describes one grading invocation.
type Request struct {
	// Directory holding the tests file
	TestDir string
	// Files staged next to the tests, relative paths resolve against TestDir
	Dependencies []string
	// Rewrite the module header of each staged dependency to expose everything
	ExposeAll bool
}

// Grader grades submissions against an assignment.
type Grader struct {
	logger     zerolog.Logger
	cfg        *config.Assignment
	visibility *regexp.Regexp
	document   *rubric.Document
	metrics    *metrics.Recorder
}

// Option configures a Grader.
type Option func(*Grader)

// WithMetrics records harness runs and grading outcomes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(g *Grader) {
		g.metrics = m
	}
}

// WithDocument grades with points from a rubric document instead of test labels.
func WithDocument(doc *rubric.Document) Option {
	return func(g *Grader) {
		g.document = doc
	}
}

// New creates a grader. The rubric document named by the assignment, if any,
// is loaded here.
func New(logger zerolog.Logger, cfg *config.Assignment, opts ...Option) (*Grader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	visibility, err := cfg.VisibilityPattern()
	if err != nil {
		return nil, err
	}

	g := &Grader{
		logger:     logger,
		cfg:        cfg,
		visibility: visibility,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.document == nil && cfg.RubricDocument != "" {
		doc, err := rubric.LoadDocument(cfg.RubricDocument)
		if err != nil {
			return nil, err
		}
		g.document = doc
	}
	return g, nil
}

// Grade runs one grading invocation and returns its report.
//
// Failures of the harness or of its output are not errors: they produce a
// zero-score report carrying the reason. Errors are returned only for a file
// that could not be staged (*StagingError), an interrupted context, or a
// broken harness setup.
func (g *Grader) Grade(ctx context.Context, req Request) (*model.Report, error) {
	start := time.Now()
	logger := g.logger.With().Str("test_dir", req.TestDir).Logger()

	stager, err := NewStager(logger, g.cfg.StagingDir())
	if err != nil {
		return nil, err
	}
	defer stager.Cleanup()

	if err := g.stage(stager, req); err != nil {
		g.metrics.RecordGrading(metrics.OutcomeStagingError, time.Since(start))
		return nil, err
	}

	runner, err := harness.NewRunner(logger, g.cfg.Harness.Dir, g.cfg.Harness.Command, g.cfg.Harness.Timeout)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("command", runner.String()).Int("staged", len(stager.Staged())).Msg("Running tests")
	out, err := runner.Run(ctx)
	if ctx.Err() != nil {
		if err == nil {
			err = fmt.Errorf("harness interrupted: %w", ctx.Err())
		}
		return nil, err
	}

	run := &model.HarnessRun{Command: runner.String()}
	if out != nil {
		run.ExitCode = out.ExitCode
		run.Stdout = out.Stdout
		run.Stderr = out.Stderr
		run.Duration = out.Duration
	}

	var res *model.Result
	if err == nil {
		res, err = g.evaluate(out, logger)
	}
	g.metrics.RecordHarnessRun(harnessResult(out, err))

	if err != nil {
		report := Zero(err)
		report.Run = run
		logger.Warn().Err(err).Str("reason", report.Reason).Msg("Grading failed, reporting zero score")
		g.metrics.RecordGrading(metrics.OutcomeZero, time.Since(start))
		return report, nil
	}

	for _, w := range res.Warnings {
		logger.Warn().Msg(w)
	}

	logger.Info().
		Str("report", res.Name).
		Float64("score", res.Earned).
		Float64("possible", res.Possible).
		Msg("Grading complete")
	g.metrics.RecordGrading(metrics.OutcomeGraded, time.Since(start))

	return &model.Report{
		Text:     rubric.Render(res),
		Score:    res.Earned,
		Possible: res.Possible,
		Warnings: res.Warnings,
		Run:      run,
	}, nil
}

func (g *Grader) stage(stager *Stager, req Request) error {
	if err := stager.Stage(filepath.Join(req.TestDir, g.cfg.TestsFile), nil); err != nil {
		return err
	}

	var transform Transform
	if req.ExposeAll {
		transform = ExposeAll(g.visibility, g.cfg.Harness.VisibilityReplacement)
	}
	for _, dep := range req.Dependencies {
		if !filepath.IsAbs(dep) {
			dep = filepath.Join(req.TestDir, dep)
		}
		if err := stager.Stage(dep, transform); err != nil {
			return err
		}
	}
	return nil
}

// evaluate decodes and aggregates harness output.
//
// A non-zero exit status with completed tests is the harness reporting
// failing tests. Without completed tests, or with unreadable output, it is a
// crash.
func (g *Grader) evaluate(out *harness.Output, logger zerolog.Logger) (*model.Result, error) {
	events, err := harness.DecodeBytes(out.Stdout)
	if err != nil {
		if out.ExitCode != 0 {
			return nil, &harness.CrashError{ExitCode: out.ExitCode, Stderr: out.Stderr, Err: err}
		}
		return nil, err
	}

	if out.ExitCode != 0 && len(rubric.Completed(events)) == 0 {
		return nil, &harness.CrashError{ExitCode: out.ExitCode, Stderr: out.Stderr}
	}

	if g.document != nil {
		return g.document.Grade(events, logger)
	}
	return rubric.Build(events, logger)
}

func harnessResult(out *harness.Output, err error) string {
	switch {
	case harness.IsTimeoutError(err):
		return metrics.HarnessTimeout
	case harness.IsCrashError(err):
		return metrics.HarnessCrash
	case out != nil && out.ExitCode != 0:
		return metrics.HarnessTestsFailed
	default:
		return metrics.HarnessOK
	}
}

// Zero builds the zero-score report for a failed grading.
func Zero(err error) *model.Report {
	reason := Reason(err)
	return &model.Report{
		Text:   rubric.RenderZero(reason),
		Reason: reason,
		Err:    err,
	}
}

// Reason describes a grading failure for the student.
func Reason(err error) string {
	var (
		stagingErr  *StagingError
		timeoutErr  *harness.TimeoutError
		crashErr    *harness.CrashError
		decodeErr   *harness.DecodeError
		labelErr    *rubric.InvalidLabelError
		nameErr     *rubric.InvalidTestNameError
		pointsErr   *rubric.InvalidPointsError
		mismatchErr *rubric.ReportNameMismatchError
		missingErr  *rubric.MissingTestError
	)

	switch {
	case errors.As(err, &stagingErr):
		if stagingErr.Missing() {
			return fmt.Sprintf("I cannot find the required file %s.", filepath.Base(stagingErr.Path))
		}
		return fmt.Sprintf("I cannot read the required file %s.", filepath.Base(stagingErr.Path))
	case errors.As(err, &timeoutErr):
		return fmt.Sprintf("Automated testing did not finish within %s.", timeoutErr.Timeout)
	case errors.As(err, &crashErr):
		if crashErr.Stderr != "" {
			return "Automated testing crashed.\n\n" + crashErr.Stderr
		}
		return "Automated testing crashed."
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("Automated testing produced unreadable output at line %d.", decodeErr.Line)
	case rubric.IsEmptyResultError(err):
		return "Automated testing did not report any test results."
	case errors.As(err, &labelErr):
		return fmt.Sprintf("Invalid test labels %q.", labelErr.Labels)
	case errors.As(err, &nameErr):
		return fmt.Sprintf("Invalid test name %q; it must include points.", nameErr.Name)
	case errors.As(err, &pointsErr):
		return fmt.Sprintf("Invalid points %q in test name %q.", pointsErr.Points, pointsErr.Name)
	case errors.As(err, &mismatchErr):
		return fmt.Sprintf("Test %q belongs to report %q instead of %q.", mismatchErr.Test, mismatchErr.Got, mismatchErr.Want)
	case errors.As(err, &missingErr):
		return fmt.Sprintf("Automated testing did not report test %q of suite %q.", missingErr.Test, missingErr.Suite)
	case err != nil:
		return "Automated testing failed: " + err.Error()
	default:
		return "Automated testing failed."
	}
}

// ErrorKind names the class of a grading failure, for history records.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsStagingError(err):
		return "staging"
	case harness.IsTimeoutError(err):
		return "timeout"
	case harness.IsCrashError(err):
		return "crash"
	case harness.IsDecodeError(err):
		return "decode"
	case rubric.IsEmptyResultError(err):
		return "empty_result"
	case rubric.IsLabelError(err):
		return "label"
	default:
		var mismatchErr *rubric.ReportNameMismatchError
		if errors.As(err, &mismatchErr) {
			return "report_name"
		}
		var missingErr *rubric.MissingTestError
		if errors.As(err, &missingErr) {
			return "missing_test"
		}
		return "other"
	}
}

// WriteReport writes the report text followed by a newline.
func WriteReport(path string, report *model.Report) error {
	if err := os.WriteFile(path, []byte(report.Text+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
