package history

// This file contains grading history: every grading invocation is recorded
// in its own directory together with the report and the harness output.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/autograde/autograde/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	historyFile = "history.json"
	reportFile  = "report.txt"
	stdoutFile  = "harness.stdout"
	stderrFile  = "harness.stderr"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Entry struct {
	History  model.History
	FullPath string
}

// New starts a history record with a fresh ID.
func New(t model.HistoryType, args []string) *model.History {
	return &model.History{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now(),
		Args:      args,
		ExitCode:  -1,
	}
}

// Complete copies the outcome of a grading invocation into h.
func Complete(h *model.History, report *model.Report, errorKind string) {
	h.Duration = time.Since(h.Timestamp)
	if report == nil {
		return
	}
	h.Score = report.Score
	h.Possible = report.Possible
	h.Reason = report.Reason
	h.ErrorKind = errorKind
	if report.Run != nil {
		h.Command = report.Run.Command
		h.ExitCode = report.Run.ExitCode
	}
}

// Record writes h and the artifacts of report into a new directory below
// root and returns that directory.
func Record(logger zerolog.Logger, root string, h *model.History, report *model.Report) (string, error) {
	subject := h.Submission
	if subject == "" {
		subject = string(h.Type)
	}
	subject = strings.Trim(unsafeNameChars.ReplaceAllString(subject, "_"), "_")

	shortID := h.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	// <timestamp>-<submission>-<id>
	runName := fmt.Sprintf("%s-%s-%s", h.Timestamp.Format("20060102-150405"), subject, shortID)
	runDir := filepath.Join(root, runName)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}

	if report != nil {
		writeArtifact(logger, runDir, h, model.ArtifactTypeReport, reportFile, []byte(report.Text+"\n"))
		if report.Run != nil {
			writeArtifact(logger, runDir, h, model.ArtifactTypeStdout, stdoutFile, report.Run.Stdout)
			writeArtifact(logger, runDir, h, model.ArtifactTypeStderr, stderrFile, []byte(report.Run.Stderr))
		}
	}

	metadataJSON, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, historyFile), metadataJSON, 0o644); err != nil {
		return "", fmt.Errorf("failed to write history: %w", err)
	}

	logger.Debug().Str("dir", runDir).Str("id", h.ID).Msg("Recorded grading")
	return runDir, nil
}

// writeArtifact stores a non-empty artifact; failures are logged and do not
// fail the recording.
func writeArtifact(logger zerolog.Logger, runDir string, h *model.History, t model.ArtifactType, name string, data []byte) {
	if len(data) == 0 {
		return
	}
	if err := os.WriteFile(filepath.Join(runDir, name), data, 0o644); err != nil {
		logger.Warn().Err(err).Str("artifact", t.String()).Msg("Failed to save artifact")
		return
	}
	h.Artifacts = append(h.Artifacts, model.Artifact{
		Type: t,
		Size: uint64(len(data)),
		File: name,
	})
}

// LoadEntries loads all history entries below root, newest first. A missing
// root yields no entries.
func LoadEntries(logger zerolog.Logger, root string) ([]Entry, error) {
	var entries []Entry

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			historyPath := filepath.Join(path, historyFile)
			if _, err := os.Stat(historyPath); err == nil {
				history, err := parseHistoryJSON(historyPath)
				if err != nil {
					logger.Warn().Err(err).Str("path", historyPath).Msg("Failed to parse history.json")
					return nil
				}

				entries = append(entries, Entry{
					History:  history,
					FullPath: path,
				})
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk history directory: %w", err)
	}

	// Sort by timestamp (newest first)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].History.Timestamp.After(entries[j].History.Timestamp)
	})

	return entries, nil
}

// Find resolves arg against entries sorted newest first: "0" is the latest
// entry, "-1" the one before, anything else is an ID prefix.
func Find(entries []Entry, arg string) (*Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no history entries found")
	}

	if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if parsed > 0 {
			// Positive integers are not allowed
			return nil, fmt.Errorf("invalid index: %s (use 0 for last, -1 for second-to-last, -2 for third-to-last, etc.)", arg)
		}
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d history entries)", arg, len(entries))
		}
		return &entries[index], nil
	}

	hexID := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].History.ID), hexID) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no history entry found matching ID: %s", arg)
}

// Artifact returns the path of the first artifact of type t, if recorded.
func (e *Entry) Artifact(t model.ArtifactType) (string, bool) {
	for _, artifact := range e.History.Artifacts {
		if artifact.Type == t {
			return filepath.Join(e.FullPath, artifact.File), true
		}
	}
	return "", false
}

// parseHistoryJSON parses a history.json file.
func parseHistoryJSON(historyPath string) (model.History, error) {
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return model.History{}, err
	}

	var history model.History
	if err := json.Unmarshal(data, &history); err != nil {
		return model.History{}, err
	}

	return history, nil
}
