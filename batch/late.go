package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

const day = 24 * time.Hour

// LateDays returns the number of started days between deadline and the
// newest of times, or 0 when nothing is late.
func LateDays(times []time.Time, deadline time.Time) int {
	var newest time.Time
	for _, t := range times {
		if t.After(newest) {
			newest = t
		}
	}
	if newest.IsZero() || !newest.After(deadline) {
		return 0
	}
	return int(math.Ceil(float64(newest.Sub(deadline)) / float64(day)))
}

// LateResult is the late-day count of one submission.
type LateResult struct {
	Submission string
	Days       int
	// Files that could not be dated
	Missing []string
}

// Late computes the late days of every submission and stores them in the
// roster column "<assignment>_late".
func (d *Driver) Late(ctx context.Context, submissions []string) ([]LateResult, error) {
	if d.cfg.Deadline.IsZero() {
		return nil, errors.New("deadline is required to count late days")
	}

	column := d.cfg.Assignment + "_late"
	results := make([]LateResult, 0, len(submissions))
	for _, name := range submissions {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := LateResult{Submission: name}
		var times []time.Time
		for _, file := range d.cfg.Files {
			path := filepath.Join(d.cfg.SubmissionDir(name), file)
			t, err := d.changedAt(ctx, path)
			if err != nil {
				d.logger.Warn().Err(err).Str("submission", name).Str("file", file).Msg("File not found")
				res.Missing = append(res.Missing, file)
				continue
			}
			times = append(times, t)
		}
		res.Days = LateDays(times, d.cfg.Deadline)

		d.logger.Info().Str("submission", name).Int("late_days", res.Days).Msg("Counted late days")
		if d.roster != nil {
			d.roster.SetInt(name, column, res.Days)
		}
		results = append(results, res)
	}

	if d.roster != nil {
		if err := d.roster.Save(); err != nil {
			return results, err
		}
	}
	return results, nil
}

// changedAt prefers the commit time of path and falls back to its
// modification time when the file is not committed.
func (d *Driver) changedAt(ctx context.Context, path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}

	if d.git != nil {
		t, ok, err := d.git.LastChanged(ctx, path)
		if err != nil {
			d.logger.Debug().Err(err).Str("file", path).Msg("Failed to read commit time, using modification time")
		} else if ok {
			return t, nil
		}
	}
	if info.IsDir() {
		return time.Time{}, fmt.Errorf("%s is a directory", path)
	}
	return info.ModTime(), nil
}
