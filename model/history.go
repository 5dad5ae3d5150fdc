package model

import "time"

// HistoryType represents the type of history entry
type HistoryType string

const (
	HistoryTypeGrade HistoryType = "grade"
	HistoryTypeBatch HistoryType = "batch"
)

// History represents a single grading invocation.
type History struct {
	// Unique ID for this invocation (UUID)
	ID string `json:"id"`
	// Type of invocation (single grade or part of a batch)
	Type HistoryType `json:"type"`
	// Timestamp when grading started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Assignment identifier (e.g. "hw1")
	Assignment string `json:"assignment,omitempty"`
	// Submission identifier, empty for ad-hoc grading
	Submission string `json:"submission,omitempty"`
	// Directory holding the test definitions
	TestDir string `json:"test_dir"`
	// Harness command as a shell-quoted string
	Command string `json:"command,omitempty"`
	// Exit code of the harness process (-1 if it never ran)
	ExitCode int `json:"exit_code"`
	// Duration of the grading invocation
	Duration time.Duration `json:"duration"`
	// Score and total points of the produced report
	Score    float64 `json:"score"`
	Possible float64 `json:"possible"`
	// Reason of a zero-score report
	Reason string `json:"reason,omitempty"`
	// Classified error kind behind a zero-score report
	ErrorKind string `json:"error_kind,omitempty"`
	// Git information of the submission repository
	Git *Git `json:"git,omitempty"`
	// Artifacts generated during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of grading
	Commit string `json:"commit,omitempty"`
	// Git branch at time of grading
	Branch string `json:"branch,omitempty"`
}

// ArtifactType identifies the type of artifact
type ArtifactType uint8

const (
	ArtifactTypeReport ArtifactType = iota
	ArtifactTypeStdout
	ArtifactTypeStderr
)

// String returns a short human-readable name of the artifact type.
func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypeReport:
		return "report"
	case ArtifactTypeStdout:
		return "stdout"
	case ArtifactTypeStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Artifact represents a file generated during grading
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to run dir
}
