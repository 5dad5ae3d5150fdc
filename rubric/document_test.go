package rubric

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/autograde/autograde/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testDocument = `
name: HW1
suites:
  Arithmetic:
    - add: 5
    - sub: 2.5
  Strings:
    - concat: 1
`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(testDocument))
	require.NoError(t, err)
	require.Equal(t, "HW1", doc.Name)
	require.Equal(t, []DocumentSuite{
		{Name: "Arithmetic", Tests: []DocumentTest{{Name: "add", Points: 5}, {Name: "sub", Points: 2.5}}},
		{Name: "Strings", Tests: []DocumentTest{{Name: "concat", Points: 1}}},
	}, doc.Suites)
	require.Equal(t, 8.5, doc.Possible())
}

func TestParseDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid yaml", data: "suites: [\n"},
		{name: "suites not a mapping", data: "suites:\n  - a\n"},
		{name: "no suites", data: "name: HW1\nsuites: {}\n"},
		{name: "duplicate suite", data: "suites:\n  A:\n    - x: 1\n  A:\n    - y: 1\n"},
		{name: "multi key entry", data: "suites:\n  A:\n    - x: 1\n      y: 2\n"},
		{name: "negative points", data: "suites:\n  A:\n    - x: -1\n"},
		{name: "non numeric points", data: "suites:\n  A:\n    - x: lots\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rubric.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDocument), 0o644))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	require.Len(t, doc.Suites, 2)

	_, err = LoadDocument(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDocumentGrade(t *testing.T) {
	doc, err := ParseDocument([]byte(testDocument))
	require.NoError(t, err)

	events := []model.RawEvent{
		completed("pass", "Tests", "Arithmetic", "add"),
		completed("fail", "Tests", "Arithmetic", "sub@1"),
		// matched by name only
		completed("pass", "Tests", "Other", "concat"),
	}

	res, err := doc.Grade(events, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "HW1", res.Name)
	require.Equal(t, float64(6), res.Earned)
	require.Equal(t, 8.5, res.Possible)
	require.Len(t, res.Suites, 2)
	require.Equal(t, "Strings", res.Suites[1].Name)

	text := Render(res)
	require.Contains(t, text, "HW1 Total Score: 6 / 8.5")
	require.Contains(t, text, "  - Test Case sub: 0 / 2.5")
}

func TestDocumentGradeRepeatedTest(t *testing.T) {
	doc, err := ParseDocument([]byte(testDocument))
	require.NoError(t, err)

	// the first result of a repeated test counts, by suite and by name alike
	events := []model.RawEvent{
		completed("pass", "Tests", "Arithmetic", "add"),
		completed("fail", "Tests", "Arithmetic", "add"),
		completed("fail", "Tests", "Arithmetic", "sub"),
		completed("pass", "Tests", "Arithmetic", "sub"),
		completed("pass", "Tests", "Other", "concat"),
		completed("fail", "Tests", "Other", "concat"),
	}

	res, err := doc.Grade(events, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, float64(6), res.Earned)
	require.True(t, res.Suites[0].Tests[0].Passed)
	require.False(t, res.Suites[0].Tests[1].Passed)
	require.True(t, res.Suites[1].Tests[0].Passed)
}

func TestDocumentGradeMissingTest(t *testing.T) {
	doc, err := ParseDocument([]byte(testDocument))
	require.NoError(t, err)

	events := []model.RawEvent{
		completed("pass", "Tests", "Arithmetic", "add"),
		completed("pass", "Tests", "Arithmetic", "sub"),
	}

	_, err = doc.Grade(events, zerolog.Nop())
	var missing *MissingTestError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "concat", missing.Test)
	require.Equal(t, "Strings", missing.Suite)
}

func TestDocumentGradeEmpty(t *testing.T) {
	doc, err := ParseDocument([]byte(testDocument))
	require.NoError(t, err)

	_, err = doc.Grade([]model.RawEvent{{Event: "runStart"}}, zerolog.Nop())
	require.True(t, IsEmptyResultError(err))
}
