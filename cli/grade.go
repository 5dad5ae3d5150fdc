package cli

// This file contains the grade command: one grading invocation for a test
// directory and a set of dependencies.

import (
	"fmt"
	"os"

	"github.com/autograde/autograde/grader"
	"github.com/autograde/autograde/history"
	"github.com/autograde/autograde/model"
	"github.com/urfave/cli/v2"
)

func (a *App) grade(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("no test directory specified: please provide the directory containing the tests file")
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	testDir := ctx.Args().First()
	deps := append(ctx.StringSlice("dependency"), ctx.Args().Tail()...)

	rec := a.newRecorder(cfg)
	defer a.writeMetrics(cfg, rec)

	g, err := grader.New(a.logger, cfg, grader.WithMetrics(rec))
	if err != nil {
		return err
	}

	h := history.New(model.HistoryTypeGrade, os.Args)
	h.Assignment = cfg.Assignment
	h.TestDir = testDir

	a.logger.Debug().Str("test_dir", testDir).Strs("dependencies", deps).Msg("Preparing to run test suite")
	report, err := g.Grade(ctx.Context, grader.Request{
		TestDir:      testDir,
		Dependencies: deps,
		ExposeAll:    cfg.ExposeAll || ctx.Bool("expose-all"),
	})
	if err != nil {
		if ctx.Context.Err() != nil || !grader.IsStagingError(err) {
			return err
		}
		report = grader.Zero(err)
	}

	if output := ctx.String("output"); output != "" {
		if err := grader.WriteReport(output, report); err != nil {
			return err
		}
		a.logger.Info().Str("file", output).Msg("Wrote report")
	} else {
		fmt.Fprintln(a.out, report.Text)
	}

	history.Complete(h, report, grader.ErrorKind(report.Err))
	if _, err := history.Record(a.logger, cfg.HistoryDir, h, report); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record history")
	}

	return nil
}
