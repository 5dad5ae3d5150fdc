package cli

// This file contains the view command for displaying gradings from history.

import (
	"fmt"
	"os"

	"github.com/autograde/autograde/history"
	"github.com/autograde/autograde/model"
	"github.com/urfave/cli/v2"
)

var artifactNames = map[string]model.ArtifactType{
	model.ArtifactTypeReport.String(): model.ArtifactTypeReport,
	model.ArtifactTypeStdout.String(): model.ArtifactTypeStdout,
	model.ArtifactTypeStderr.String(): model.ArtifactTypeStderr,
}

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

func parseViewArgs(in []string) (idArg string, artifacts []string) {
	if len(in) == 0 {
		return "0", nil
	}

	// If first arg is "--", use default "0" and rest are artifact names
	if in[0] == "--" {
		return "0", in[1:]
	}

	// An artifact name instead of an ID views the last grading
	if _, ok := artifactNames[in[0]]; ok {
		return "0", in
	}

	return in[0], removeFirstDashDash(in[1:])
}

// artifactTypes resolves artifact names, defaulting to the report.
func artifactTypes(names []string) ([]model.ArtifactType, error) {
	types := make([]model.ArtifactType, 0, len(names))
	for _, name := range names {
		t, ok := artifactNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown artifact %q (use report, stdout or stderr)", name)
		}
		types = append(types, t)
	}
	if len(types) == 0 {
		types = append(types, model.ArtifactTypeReport)
	}
	return types, nil
}

func (a *App) view(ctx *cli.Context) error {
	arg, names := parseViewArgs(ctx.Args().Slice())

	types, err := artifactTypes(names)
	if err != nil {
		return err
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	historyEntries, err := history.LoadEntries(a.logger, cfg.HistoryDir)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, err := history.Find(historyEntries, arg)
	if err != nil {
		return err
	}

	return a.displayHistoryEntry(entry, types)
}

func (a *App) displayHistoryEntry(entry *history.Entry, types []model.ArtifactType) error {
	h := entry.History

	shortID := h.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	// Print header
	fmt.Fprintf(a.out, "=== Grading: %s ===\n", shortID)
	fmt.Fprintf(a.out, "Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "Duration: %s\n", h.Duration)
	if h.Submission != "" {
		fmt.Fprintf(a.out, "Submission: %s\n", h.Submission)
	}
	if h.TestDir != "" {
		fmt.Fprintf(a.out, "Tests: %s\n", h.TestDir)
	}
	if h.Command != "" {
		fmt.Fprintf(a.out, "Command: %s (exit code %d)\n", h.Command, h.ExitCode)
	}
	if h.ErrorKind != "" {
		fmt.Fprintf(a.out, "Error: %s\n", h.ErrorKind)
	}
	if h.Git != nil && h.Git.Commit != "" {
		shortCommit := h.Git.Commit
		if len(shortCommit) > 8 {
			shortCommit = shortCommit[:8]
		}
		fmt.Fprintf(a.out, "Git Commit: %s", shortCommit)
		if h.Git.Branch != "" {
			fmt.Fprintf(a.out, " (%s)", h.Git.Branch)
		}
		fmt.Fprintln(a.out)
	}

	for _, t := range types {
		fmt.Fprintln(a.out)
		path, ok := entry.Artifact(t)
		if !ok {
			fmt.Fprintf(a.out, "No %s recorded\n", t)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", t, err)
		}
		fmt.Fprintf(a.out, "--- %s: %s ---\n", t, path)
		fmt.Fprint(a.out, string(data))
	}

	fmt.Fprintf(a.out, "\nHistory directory: %s\n", entry.FullPath)
	return nil
}
