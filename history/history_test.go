package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/autograde/autograde/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func record(t *testing.T, root, submission string, ts time.Time, report *model.Report) *model.History {
	t.Helper()
	h := New(model.HistoryTypeBatch, []string{"autograde", "batch", "grade"})
	h.Timestamp = ts
	h.Submission = submission
	Complete(h, report, "")
	_, err := Record(zerolog.Nop(), root, h, report)
	require.NoError(t, err)
	return h
}

func TestRecordAndLoad(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2017, 4, 10, 12, 0, 0, 0, time.UTC)

	report := &model.Report{
		Text:     "HW1 Total Score: 5 / 10",
		Score:    5,
		Possible: 10,
		Run: &model.HarnessRun{
			Command:  "elm-test --report json",
			ExitCode: 2,
			Stdout:   []byte(`{"event":"runComplete"}`),
		},
	}
	older := record(t, root, "alice", base, report)
	newer := record(t, root, "bob/../x", base.Add(time.Minute), &model.Report{Text: "Total Score: 0\n\nReason: r", Reason: "r"})

	entries, err := LoadEntries(zerolog.Nop(), root)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, newer.ID, entries[0].History.ID)
	require.Equal(t, older.ID, entries[1].History.ID)

	e := entries[1]
	require.True(t, strings.HasPrefix(filepath.Base(e.FullPath), "20170410-120000-alice-"))
	require.Equal(t, float64(5), e.History.Score)
	require.Equal(t, 2, e.History.ExitCode)
	require.Equal(t, "elm-test --report json", e.History.Command)
	// empty stderr is not saved
	require.Len(t, e.History.Artifacts, 2)

	path, ok := e.Artifact(model.ArtifactTypeReport)
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "HW1 Total Score: 5 / 10\n", string(data))

	_, ok = e.Artifact(model.ArtifactTypeStderr)
	require.False(t, ok)

	require.True(t, strings.HasPrefix(filepath.Base(entries[0].FullPath), "20170410-120100-bob_.._x-"))
	require.Equal(t, -1, entries[0].History.ExitCode)
	require.Equal(t, "r", entries[0].History.Reason)
}

func TestLoadEntriesSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	record(t, root, "alice", time.Now(), nil)

	bad := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, historyFile), []byte("{"), 0o644))

	entries, err := LoadEntries(zerolog.Nop(), root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLoadEntriesMissingRoot(t *testing.T) {
	entries, err := LoadEntries(zerolog.Nop(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFind(t *testing.T) {
	entries := []Entry{
		{History: model.History{ID: "ABCDEF12-0000"}},
		{History: model.History{ID: "12345678-0000"}},
		{History: model.History{ID: "abc00000-0000"}},
	}

	tests := []struct {
		arg     string
		wantID  string
		wantErr string
	}{
		{arg: "0", wantID: "ABCDEF12-0000"},
		{arg: "-1", wantID: "12345678-0000"},
		{arg: "-2", wantID: "abc00000-0000"},
		{arg: "-3", wantErr: "out of range"},
		{arg: "1", wantErr: "invalid index"},
		{arg: "abcdef", wantID: "ABCDEF12-0000"},
		{arg: "abc0", wantID: "abc00000-0000"},
		{arg: "ffff", wantErr: "no history entry found"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			e, err := Find(entries, tt.arg)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, e.History.ID)
		})
	}

	_, err := Find(nil, "0")
	require.Error(t, err)
}
