package cli

// This file contains the list command for displaying previous gradings.

import (
	"fmt"
	"time"

	"github.com/autograde/autograde/history"
	"github.com/autograde/autograde/rubric"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	filterSubmission := ctx.String("submission")
	limit := ctx.Int("limit")

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	// Load all history entries, newest first
	historyEntries, err := history.LoadEntries(a.logger, cfg.HistoryDir)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	// Apply submission filter if specified
	var filteredEntries []history.Entry
	for _, entry := range historyEntries {
		if filterSubmission == "" || entry.History.Submission == filterSubmission {
			filteredEntries = append(filteredEntries, entry)
		}
	}

	if len(filteredEntries) == 0 {
		if filterSubmission != "" {
			fmt.Fprintf(a.out, "No history entries found for submission: %s\n", filterSubmission)
		} else {
			fmt.Fprintln(a.out, "No history entries found")
			fmt.Fprintf(a.out, "Gradings are saved to %s/<timestamp>-<submission>-<id>/\n", cfg.HistoryDir)
		}
		return nil
	}

	// Apply limit
	displayRuns := filteredEntries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetTitle(fmt.Sprintf("History (%d total)", len(filteredEntries)))
	t.AppendHeader(table.Row{"", "ID", "Time", "Submission", "Score", "Exit", "Duration", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Score", Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Reason", WidthMax: 50, WidthMaxEnforcer: text.Trim},
	})

	for _, entry := range displayRuns {
		h := entry.History

		// Determine status indicator
		status := "✓"
		if h.Reason != "" {
			status = "✗"
		}

		// Show short ID (first 8 chars)
		shortID := h.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		submission := h.Submission
		if submission == "" {
			submission = h.TestDir
		}

		score := rubric.FormatPoints(h.Score)
		if h.Possible > 0 {
			score += " / " + rubric.FormatPoints(h.Possible)
		}

		t.AppendRow(table.Row{
			status,
			shortID,
			h.Timestamp.Format("2006-01-02 15:04:05"),
			submission,
			score,
			h.ExitCode,
			h.Duration.Round(time.Millisecond),
			firstLine(h.Reason),
		})
	}
	t.Render()

	fmt.Fprintf(a.out, "\nView report: %s view <ID>\n", AppName)
	return nil
}
