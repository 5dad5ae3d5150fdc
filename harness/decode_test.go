package harness

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	output := `{"event":"runStart","testCount":"2"}

{"event":"testCompleted","status":"pass","labels":["HW1","Suite1","add@5"],"duration":"1"}
   
{"event":"testCompleted","status":"fail","labels":["HW1","Suite1","sub@5"],"failures":[]}
{"event":"runComplete","passed":"1","failed":"1"}
`

	events, err := Decode(strings.NewReader(output))
	require.NoError(t, err)
	require.Len(t, events, 4)

	require.Equal(t, "runStart", events[0].Event)
	require.False(t, events[0].Completed())

	require.True(t, events[1].Completed())
	require.Equal(t, "pass", events[1].Status)
	require.Equal(t, []string{"HW1", "Suite1", "add@5"}, events[1].Labels)
	require.Equal(t, 3, events[1].Line)

	require.Equal(t, "fail", events[2].Status)
	require.Equal(t, 5, events[2].Line)
	require.Equal(t, "runComplete", events[3].Event)
}

func TestDecodeEmpty(t *testing.T) {
	events, err := Decode(strings.NewReader("\n\n"))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantLine int
	}{
		{
			name:     "plain text",
			in:       "Compiling ...\n",
			wantLine: 1,
		},
		{
			name:     "truncated object after valid events",
			in:       `{"event":"runStart"}` + "\n" + `{"event":"testCompleted","labels":[`,
			wantLine: 2,
		},
		{
			name:     "json array",
			in:       `["HW1"]`,
			wantLine: 1,
		},
		{
			name:     "json null",
			in:       "\nnull\n",
			wantLine: 2,
		},
		{
			name:     "labels of wrong type",
			in:       `{"event":"testCompleted","labels":"HW1"}`,
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Decode(strings.NewReader(tt.in))
			require.Error(t, err)
			require.Nil(t, events)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			require.Equal(t, tt.wantLine, decodeErr.Line)
			require.True(t, IsDecodeError(err))
		})
	}
}

func TestDecodeStripsColorsInDiagnostics(t *testing.T) {
	_, err := Decode(strings.NewReader("\x1b[31mCOMPILE ERROR\x1b[0m\n"))
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, "COMPILE ERROR", decodeErr.Text)
	require.Contains(t, err.Error(), "line 1")
}

func TestDecodeTruncatesLongLines(t *testing.T) {
	_, err := DecodeBytes([]byte(strings.Repeat("x", 500)))
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.True(t, strings.HasSuffix(decodeErr.Text, "..."))
	require.Len(t, decodeErr.Text, maxSnippetLen+3)
}
