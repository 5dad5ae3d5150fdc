package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
assignment: hw1
tests_dir: ../tests/hw1
files: [FPWarmup.elm]
deadline: 2017-04-10T12:00:00Z
harness:
  dir: elm-tester
  timeout: 30s
submissions:
  dir: /srv/repositories
  list: repositories_list.txt
roster:
  path: class_summary.csv
`)
	base := filepath.Dir(path)

	a, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "hw1", a.Assignment)
	require.Equal(t, filepath.Join(base, "../tests/hw1"), a.TestsDir)
	require.Equal(t, []string{"FPWarmup.elm"}, a.Files)
	require.Equal(t, "hw1.rubric.txt", a.ReportFile)
	require.Equal(t, time.Date(2017, 4, 10, 12, 0, 0, 0, time.UTC), a.Deadline.UTC())
	require.Equal(t, filepath.Join(base, "elm-tester"), a.Harness.Dir)
	require.Equal(t, filepath.Join(base, "elm-tester", "tests"), a.StagingDir())
	require.Equal(t, 30*time.Second, a.Harness.Timeout)
	require.Equal(t, DefaultCommand, a.Harness.Command)
	require.Equal(t, "/srv/repositories", a.Submissions.Dir)
	require.Equal(t, filepath.Join(base, "repositories_list.txt"), a.Submissions.List)
	require.Equal(t, filepath.Join(base, "class_summary.csv"), a.Roster.Path)
	require.Equal(t, "Repo", a.Roster.KeyColumn)
	require.Equal(t, filepath.Join(base, DefaultHistoryDir), a.HistoryDir)
	require.Equal(t, "/srv/repositories/alice/hw1", a.SubmissionDir("alice"))
	require.NoError(t, a.BatchReady())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "assignment: hw1\ntimeout: 5m\n",
			wantErr: "field timeout not found",
		},
		{
			name:    "empty command",
			content: "harness:\n  command: ['']\n",
			wantErr: "harness.command cannot be empty",
		},
		{
			name:    "negative timeout",
			content: "harness:\n  timeout: -1s\n",
			wantErr: "harness.timeout must be positive",
		},
		{
			name:    "invalid pattern",
			content: "harness:\n  visibility_pattern: '(module'\n",
			wantErr: "invalid harness.visibility_pattern",
		},
		{
			name:    "tests file with directory",
			content: "tests_file: tests/Tests.elm\n",
			wantErr: "tests_file must be a file name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestParseEmpty(t *testing.T) {
	a, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), a)
	require.Empty(t, a.ReportFile)
	require.NoError(t, a.Validate())
	require.Error(t, a.BatchReady())
}

func TestVisibilityPattern(t *testing.T) {
	re, err := Default().VisibilityPattern()
	require.NoError(t, err)
	require.Equal(t, "module Foo exposing (..)",
		re.ReplaceAllString("module Foo exposing (bar, baz)", DefaultVisibilityReplacement))
}
