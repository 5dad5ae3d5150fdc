// Package config loads the assignment file describing how submissions are
// staged, tested and reported.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the assignment file looked up when no path is given.
const DefaultFile = "autograde.yaml"

const (
	DefaultTestsFile             = "Tests.elm"
	DefaultHarnessDir            = "elm-tester"
	DefaultTestsSubdir           = "tests"
	DefaultTimeout               = 5 * time.Minute
	DefaultVisibilityPattern     = `^module\s+(\S+)\s+exposing\s*\(.*\)`
	DefaultVisibilityReplacement = "module $1 exposing (..)"
	DefaultRosterKeyColumn       = "Repo"
	DefaultHistoryDir            = ".autograde/history"
)

// DefaultCommand runs elm-test with machine-readable output.
var DefaultCommand = []string{"elm-test", "--report", "json"}

// Assignment is the configuration of one graded assignment.
type Assignment struct {
	// Directory name of the assignment inside each submission
	Assignment string `yaml:"assignment"`
	// Directory holding the tests file
	TestsDir  string `yaml:"tests_dir"`
	TestsFile string `yaml:"tests_file"`
	// Submission files staged next to the tests
	Files     []string `yaml:"files"`
	ExposeAll bool     `yaml:"expose_all"`
	// Report file name inside the assignment directory of a submission
	ReportFile string `yaml:"report_file"`
	// Legacy rubric document, points come from the document instead of labels
	RubricDocument string    `yaml:"rubric_document"`
	Deadline       time.Time `yaml:"deadline"`

	Harness     Harness     `yaml:"harness"`
	Submissions Submissions `yaml:"submissions"`
	Roster      Roster      `yaml:"roster"`

	HistoryDir  string `yaml:"history_dir"`
	MetricsFile string `yaml:"metrics_file"`
}

// Harness describes the test runner installation.
type Harness struct {
	Dir                   string        `yaml:"dir"`
	TestsSubdir           string        `yaml:"tests_subdir"`
	Command               []string      `yaml:"command"`
	Timeout               time.Duration `yaml:"timeout"`
	VisibilityPattern     string        `yaml:"visibility_pattern"`
	VisibilityReplacement string        `yaml:"visibility_replacement"`
}

// Submissions describes where submission repositories live.
type Submissions struct {
	Dir       string `yaml:"dir"`
	List      string `yaml:"list"`
	URLPrefix string `yaml:"url_prefix"`
}

// Roster describes the class summary CSV file.
type Roster struct {
	Path      string `yaml:"path"`
	KeyColumn string `yaml:"key_column"`
}

// Default returns an assignment with every default applied.
func Default() *Assignment {
	a := &Assignment{}
	a.applyDefaults()
	return a
}

// Load reads, completes and validates an assignment file. Relative paths are
// resolved against the directory of the file.
func Load(path string) (*Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	a.resolvePaths(base)

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Parse decodes an assignment and applies defaults. Unknown keys are rejected.
func Parse(data []byte) (*Assignment, error) {
	a := &Assignment{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(a); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	a.applyDefaults()
	return a, nil
}

func (a *Assignment) applyDefaults() {
	if a.TestsFile == "" {
		a.TestsFile = DefaultTestsFile
	}
	if a.ReportFile == "" && a.Assignment != "" {
		a.ReportFile = a.Assignment + ".rubric.txt"
	}
	if a.Harness.Dir == "" {
		a.Harness.Dir = DefaultHarnessDir
	}
	if a.Harness.TestsSubdir == "" {
		a.Harness.TestsSubdir = DefaultTestsSubdir
	}
	if len(a.Harness.Command) == 0 {
		a.Harness.Command = append([]string(nil), DefaultCommand...)
	}
	if a.Harness.Timeout == 0 {
		a.Harness.Timeout = DefaultTimeout
	}
	if a.Harness.VisibilityPattern == "" {
		a.Harness.VisibilityPattern = DefaultVisibilityPattern
	}
	if a.Harness.VisibilityReplacement == "" {
		a.Harness.VisibilityReplacement = DefaultVisibilityReplacement
	}
	if a.Roster.KeyColumn == "" {
		a.Roster.KeyColumn = DefaultRosterKeyColumn
	}
	if a.HistoryDir == "" {
		a.HistoryDir = DefaultHistoryDir
	}
}

func (a *Assignment) resolvePaths(base string) {
	for _, p := range []*string{
		&a.TestsDir,
		&a.RubricDocument,
		&a.Harness.Dir,
		&a.Submissions.Dir,
		&a.Submissions.List,
		&a.Roster.Path,
		&a.HistoryDir,
		&a.MetricsFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate checks the settings every grading invocation depends on.
func (a *Assignment) Validate() error {
	if len(a.Harness.Command) == 0 || a.Harness.Command[0] == "" {
		return errors.New("harness.command cannot be empty")
	}
	if a.Harness.Timeout <= 0 {
		return fmt.Errorf("harness.timeout must be positive, got %s", a.Harness.Timeout)
	}
	if _, err := regexp.Compile(a.Harness.VisibilityPattern); err != nil {
		return fmt.Errorf("invalid harness.visibility_pattern: %w", err)
	}
	if a.TestsFile != filepath.Base(a.TestsFile) {
		return fmt.Errorf("tests_file must be a file name, got %q", a.TestsFile)
	}
	return nil
}

// VisibilityPattern compiles the module header pattern used by expose-all.
// The pattern is matched line by line.
func (a *Assignment) VisibilityPattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?m)" + a.Harness.VisibilityPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid harness.visibility_pattern: %w", err)
	}
	return re, nil
}

// StagingDir is the directory inside the harness receiving staged files.
func (a *Assignment) StagingDir() string {
	return filepath.Join(a.Harness.Dir, a.Harness.TestsSubdir)
}

// SubmissionDir is the assignment directory of one submission.
func (a *Assignment) SubmissionDir(submission string) string {
	return filepath.Join(a.Submissions.Dir, submission, a.Assignment)
}

// BatchReady reports whether the settings needed by batch commands are set.
func (a *Assignment) BatchReady() error {
	switch {
	case a.Assignment == "":
		return errors.New("assignment is required for batch commands")
	case a.TestsDir == "":
		return errors.New("tests_dir is required for batch commands")
	case a.Submissions.Dir == "":
		return errors.New("submissions.dir is required for batch commands")
	case a.Submissions.List == "":
		return errors.New("submissions.list is required for batch commands")
	}
	return nil
}
