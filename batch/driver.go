// Package batch grades, fetches and publishes every submission of an
// assignment, one submission at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/autograde/autograde/config"
	"github.com/autograde/autograde/grader"
	"github.com/autograde/autograde/history"
	"github.com/autograde/autograde/metrics"
	"github.com/autograde/autograde/model"
	"github.com/autograde/autograde/roster"
	"github.com/autograde/autograde/rubric"
	"github.com/autograde/autograde/vcs"
	"github.com/rs/zerolog"
)

// Status of a submission after a batch grading.
type Status string

const (
	StatusGraded       Status = "graded"
	StatusZero         Status = "zero"
	StatusStagingError Status = "staging_error"
	StatusSkipped      Status = "skipped"
	StatusFailed       Status = "failed"
)

// Grader grades one submission.
type Grader interface {
	Grade(ctx context.Context, req grader.Request) (*model.Report, error)
}

// Outcome is the result of grading one submission.
type Outcome struct {
	Submission string
	Status     Status
	Score      float64
	Possible   float64
	Reason     string
	ReportPath string
	Err        error
}

// Driver runs batch operations over the submissions of an assignment.
type Driver struct {
	logger  zerolog.Logger
	cfg     *config.Assignment
	grader  Grader
	roster  *roster.Roster
	git     *vcs.Git
	metrics *metrics.Recorder
	args    []string
	force   bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithRoster records scores and late days in r.
func WithRoster(r *roster.Roster) Option {
	return func(d *Driver) { d.roster = r }
}

// WithGit enables repository operations and records commits in history.
func WithGit(g *vcs.Git) Option {
	return func(d *Driver) { d.git = g }
}

// WithMetrics records scores and skipped submissions.
func WithMetrics(m *metrics.Recorder) Option {
	return func(d *Driver) { d.metrics = m }
}

// WithArgs stores the invoking command line in history records.
func WithArgs(args []string) Option {
	return func(d *Driver) { d.args = args }
}

// WithForce regrades submissions that already have a report.
func WithForce(force bool) Option {
	return func(d *Driver) { d.force = force }
}

// NewDriver creates a batch driver.
func NewDriver(logger zerolog.Logger, cfg *config.Assignment, g Grader, opts ...Option) (*Driver, error) {
	if err := cfg.BatchReady(); err != nil {
		return nil, err
	}
	d := &Driver{
		logger: logger,
		cfg:    cfg,
		grader: g,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Grade grades every submission in order. A failing submission never stops
// the batch; only cancellation of ctx does, in which case the outcomes so
// far are returned with the context's error.
func (d *Driver) Grade(ctx context.Context, submissions []string) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(submissions))
	defer d.saveRoster()

	for _, name := range submissions {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		outcome := d.gradeOne(ctx, name)
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (d *Driver) gradeOne(ctx context.Context, name string) Outcome {
	logger := d.logger.With().Str("submission", name).Logger()
	hwDir := d.cfg.SubmissionDir(name)
	reportPath := filepath.Join(hwDir, d.cfg.ReportFile)
	outcome := Outcome{Submission: name, ReportPath: reportPath}

	if !d.force {
		if data, err := os.ReadFile(reportPath); err == nil {
			logger.Info().Msg("Skip, graded")
			outcome.Status = StatusSkipped
			if summary, err := rubric.ParseReport(string(data)); err == nil {
				outcome.Score = summary.Earned
				outcome.Possible = summary.Possible
				outcome.Reason = summary.Reason
			} else {
				logger.Warn().Err(err).Str("report", reportPath).Msg("Failed to read score of existing report")
			}
			d.metrics.RecordGrading(metrics.OutcomeSkipped, 0)
			return outcome
		}
	}

	logger.Info().Str("assignment", d.cfg.Assignment).Msg("Grading")
	if err := os.MkdirAll(hwDir, 0o755); err != nil {
		outcome.Status = StatusFailed
		outcome.Err = fmt.Errorf("failed to create assignment directory: %w", err)
		logger.Error().Err(outcome.Err).Msg("Grading failed")
		return outcome
	}
	if err := os.Remove(reportPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("Failed to remove previous report")
	}

	h := history.New(model.HistoryTypeBatch, d.args)
	h.Assignment = d.cfg.Assignment
	h.Submission = name
	h.TestDir = d.cfg.TestsDir
	if d.git != nil {
		if head, err := d.git.Head(ctx, filepath.Join(d.cfg.Submissions.Dir, name)); err == nil {
			h.Git = head
		} else {
			logger.Debug().Err(err).Msg("Failed to read git information")
		}
	}

	deps := make([]string, 0, len(d.cfg.Files))
	for _, file := range d.cfg.Files {
		deps = append(deps, filepath.Join(hwDir, file))
	}

	report, err := d.grader.Grade(ctx, grader.Request{
		TestDir:      d.cfg.TestsDir,
		Dependencies: deps,
		ExposeAll:    d.cfg.ExposeAll,
	})
	switch {
	case err != nil && ctx.Err() != nil:
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	case err != nil:
		report = grader.Zero(err)
		outcome.Status = StatusStagingError
		if !grader.IsStagingError(err) {
			outcome.Status = StatusFailed
			logger.Error().Err(err).Msg("Grading failed")
		}
		outcome.Err = err
	case report.Zero():
		outcome.Status = StatusZero
		outcome.Err = report.Err
	default:
		outcome.Status = StatusGraded
	}

	outcome.Score = report.Score
	outcome.Possible = report.Possible
	outcome.Reason = report.Reason

	if err := grader.WriteReport(reportPath, report); err != nil {
		logger.Error().Err(err).Msg("Failed to write report")
		outcome.Status = StatusFailed
		outcome.Err = err
	}

	if d.roster != nil {
		d.roster.Set(name, d.cfg.Assignment, rubric.FormatPoints(report.Score))
	}
	d.metrics.RecordScore(name, report.Score)

	history.Complete(h, report, grader.ErrorKind(report.Err))
	if _, err := history.Record(logger, d.cfg.HistoryDir, h, report); err != nil {
		logger.Warn().Err(err).Msg("Failed to record history")
	}

	logger.Info().
		Str("status", string(outcome.Status)).
		Float64("score", outcome.Score).
		Dur("duration", time.Since(h.Timestamp)).
		Msg("Graded")
	return outcome
}

func (d *Driver) saveRoster() {
	if d.roster == nil {
		return
	}
	if err := d.roster.Save(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to save roster")
	}
}

// Pull fetches every submission repository. Failures are logged and
// returned per submission.
func (d *Driver) Pull(ctx context.Context, submissions []string) (map[string]error, error) {
	if d.git == nil {
		return nil, errors.New("git is not configured")
	}
	failures := make(map[string]error)
	for _, name := range submissions {
		if err := ctx.Err(); err != nil {
			return failures, err
		}
		if err := d.git.Pull(ctx, d.cfg.Submissions.Dir, name, d.cfg.Submissions.URLPrefix); err != nil {
			d.logger.Error().Err(err).Str("submission", name).Msg("Failed to pull")
			failures[name] = err
		}
	}
	return failures, nil
}

// Push publishes the report of every graded submission. Submissions without
// an assignment directory are skipped.
func (d *Driver) Push(ctx context.Context, submissions []string) (map[string]error, error) {
	if d.git == nil {
		return nil, errors.New("git is not configured")
	}
	failures := make(map[string]error)
	for _, name := range submissions {
		if err := ctx.Err(); err != nil {
			return failures, err
		}
		hwDir := d.cfg.SubmissionDir(name)
		if _, err := os.Stat(filepath.Join(hwDir, d.cfg.ReportFile)); err != nil {
			d.logger.Info().Str("submission", name).Msg("Skipping, no report")
			continue
		}
		d.logger.Info().Str("submission", name).Msg("Pushing")
		if err := d.git.Publish(ctx, hwDir, d.cfg.ReportFile, "Graded "+d.cfg.Assignment); err != nil {
			d.logger.Error().Err(err).Str("submission", name).Msg("Failed to push")
			failures[name] = err
		}
	}
	return failures, nil
}

// Average returns the mean score of outcomes.
func Average(outcomes []Outcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	var total float64
	for _, o := range outcomes {
		total += o.Score
	}
	return total / float64(len(outcomes))
}
