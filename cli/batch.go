package cli

// This file contains the batch commands operating on every submission listed
// for the assignment.

import (
	"fmt"
	"os"
	"sort"

	"github.com/autograde/autograde/batch"
	"github.com/autograde/autograde/config"
	"github.com/autograde/autograde/grader"
	"github.com/autograde/autograde/roster"
	"github.com/autograde/autograde/rubric"
	"github.com/autograde/autograde/vcs"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"
)

// batchSetup loads the config and the submissions a batch command works on:
// the command arguments, or the submission list.
func (a *App) batchSetup(ctx *cli.Context) (*config.Assignment, []string, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.BatchReady(); err != nil {
		return nil, nil, err
	}

	if ctx.NArg() > 0 {
		return cfg, ctx.Args().Slice(), nil
	}
	submissions, err := batch.ReadList(cfg.Submissions.List)
	if err != nil {
		return nil, nil, err
	}
	return cfg, submissions, nil
}

func (a *App) loadRoster(cfg *config.Assignment) (*roster.Roster, error) {
	if cfg.Roster.Path == "" {
		return nil, nil
	}
	return roster.Load(cfg.Roster.Path, cfg.Roster.KeyColumn)
}

func (a *App) batchGrade(ctx *cli.Context) error {
	cfg, submissions, err := a.batchSetup(ctx)
	if err != nil {
		return err
	}

	r, err := a.loadRoster(cfg)
	if err != nil {
		return err
	}

	rec := a.newRecorder(cfg)
	defer a.writeMetrics(cfg, rec)

	g, err := grader.New(a.logger, cfg, grader.WithMetrics(rec))
	if err != nil {
		return err
	}

	d, err := batch.NewDriver(a.logger, cfg, g,
		batch.WithRoster(r),
		batch.WithGit(vcs.New(a.logger)),
		batch.WithMetrics(rec),
		batch.WithArgs(os.Args),
		batch.WithForce(ctx.Bool("force")),
	)
	if err != nil {
		return err
	}

	outcomes, err := d.Grade(ctx.Context, submissions)
	a.printOutcomes(outcomes)
	return err
}

func (a *App) printOutcomes(outcomes []batch.Outcome) {
	if len(outcomes) == 0 {
		fmt.Fprintln(a.out, "No submissions graded")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetTitle("Grading Results")
	t.AppendHeader(table.Row{"Submission", "Status", "Score", "Possible", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Score", Align: text.AlignRight},
		{Name: "Possible", Align: text.AlignRight},
		{Name: "Reason", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, o := range outcomes {
		possible := "-"
		if o.Possible > 0 {
			possible = rubric.FormatPoints(o.Possible)
		}
		t.AppendRow(table.Row{
			o.Submission,
			string(o.Status),
			rubric.FormatPoints(o.Score),
			possible,
			firstLine(o.Reason),
		})
	}

	t.AppendFooter(table.Row{
		"Count", len(outcomes), "Average", fmt.Sprintf("%.2f", batch.Average(outcomes)), "",
	})
	t.Render()
}

func (a *App) batchPull(ctx *cli.Context) error {
	cfg, submissions, err := a.batchSetup(ctx)
	if err != nil {
		return err
	}

	d, err := batch.NewDriver(a.logger, cfg, nil, batch.WithGit(vcs.New(a.logger)))
	if err != nil {
		return err
	}

	failures, err := d.Pull(ctx.Context, submissions)
	a.printFailures("pull", len(submissions), failures)
	return err
}

func (a *App) batchPush(ctx *cli.Context) error {
	cfg, submissions, err := a.batchSetup(ctx)
	if err != nil {
		return err
	}

	d, err := batch.NewDriver(a.logger, cfg, nil, batch.WithGit(vcs.New(a.logger)))
	if err != nil {
		return err
	}

	failures, err := d.Push(ctx.Context, submissions)
	a.printFailures("push", len(submissions), failures)
	return err
}

func (a *App) printFailures(action string, total int, failures map[string]error) {
	if len(failures) == 0 {
		fmt.Fprintf(a.out, "%s: %d submissions done\n", action, total)
		return
	}

	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetTitle(fmt.Sprintf("Failed to %s %d of %d submissions", action, len(failures), total))
	t.AppendHeader(table.Row{"Submission", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, name := range names {
		t.AppendRow(table.Row{name, failures[name].Error()})
	}
	t.Render()
}

func (a *App) batchLate(ctx *cli.Context) error {
	cfg, submissions, err := a.batchSetup(ctx)
	if err != nil {
		return err
	}

	r, err := a.loadRoster(cfg)
	if err != nil {
		return err
	}

	d, err := batch.NewDriver(a.logger, cfg, nil, batch.WithRoster(r), batch.WithGit(vcs.New(a.logger)))
	if err != nil {
		return err
	}

	results, err := d.Late(ctx.Context, submissions)
	if len(results) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(a.out)
		t.SetTitle(fmt.Sprintf("Late Days (deadline %s)", cfg.Deadline.Format("2006-01-02 15:04:05 MST")))
		t.AppendHeader(table.Row{"Submission", "Late Days", "Missing Files"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "Late Days", Align: text.AlignRight},
		})
		for _, res := range results {
			t.AppendRow(table.Row{res.Submission, res.Days, len(res.Missing)})
		}
		t.Render()
	}
	return err
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
