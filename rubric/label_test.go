package rubric

import (
	"bytes"
	"errors"
	"testing"

	"github.com/autograde/autograde/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func completed(status string, labels ...string) model.RawEvent {
	return model.RawEvent{Event: model.EventTestCompleted, Status: status, Labels: labels}
}

func TestParseEvent(t *testing.T) {
	test, err := ParseEvent(completed("pass", "HW1", "Suite1", "addition @ 5"), zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, model.ParsedTest{
		Report: "HW1",
		Suite:  "Suite1",
		Name:   "addition",
		Points: 5,
		Passed: true,
	}, test)

	test, err = ParseEvent(completed("fail", "HW1", "Suite1", "halves@2.5"), zerolog.Nop())
	require.NoError(t, err)
	require.False(t, test.Passed)
	require.Equal(t, 2.5, test.Points)
	require.Equal(t, float64(0), test.Earned())
}

func TestParseEventErrors(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "two labels",
			labels: []string{"HW1", "add@5"},
			check: func(t *testing.T, err error) {
				var labelErr *InvalidLabelError
				require.True(t, errors.As(err, &labelErr))
				require.Equal(t, []string{"HW1", "add@5"}, labelErr.Labels)
			},
		},
		{
			name:   "four labels",
			labels: []string{"HW1", "Suite1", "Nested", "add@5"},
			check: func(t *testing.T, err error) {
				var labelErr *InvalidLabelError
				require.True(t, errors.As(err, &labelErr))
			},
		},
		{
			name:   "missing points",
			labels: []string{"HW1", "Suite1", "addition-5"},
			check: func(t *testing.T, err error) {
				var nameErr *InvalidTestNameError
				require.True(t, errors.As(err, &nameErr))
				require.Equal(t, "addition-5", nameErr.Name)
				require.Contains(t, err.Error(), "addition-5")
			},
		},
		{
			name:   "two separators",
			labels: []string{"HW1", "Suite1", "a@b@5"},
			check: func(t *testing.T, err error) {
				var nameErr *InvalidTestNameError
				require.True(t, errors.As(err, &nameErr))
			},
		},
		{
			name:   "empty name",
			labels: []string{"HW1", "Suite1", " @5"},
			check: func(t *testing.T, err error) {
				var nameErr *InvalidTestNameError
				require.True(t, errors.As(err, &nameErr))
			},
		},
		{
			name:   "empty points",
			labels: []string{"HW1", "Suite1", "add@"},
			check: func(t *testing.T, err error) {
				var nameErr *InvalidTestNameError
				require.True(t, errors.As(err, &nameErr))
			},
		},
		{
			name:   "non-numeric points",
			labels: []string{"HW1", "Suite1", "add@five"},
			check: func(t *testing.T, err error) {
				var pointsErr *InvalidPointsError
				require.True(t, errors.As(err, &pointsErr))
				require.Equal(t, "five", pointsErr.Points)
			},
		},
		{
			name:   "negative points",
			labels: []string{"HW1", "Suite1", "add@-5"},
			check: func(t *testing.T, err error) {
				var pointsErr *InvalidPointsError
				require.True(t, errors.As(err, &pointsErr))
			},
		},
		{
			name:   "hexadecimal points",
			labels: []string{"HW1", "Suite1", "add@0x1p3"},
			check: func(t *testing.T, err error) {
				var pointsErr *InvalidPointsError
				require.True(t, errors.As(err, &pointsErr))
				require.Equal(t, "0x1p3", pointsErr.Points)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent(completed("pass", tt.labels...), zerolog.Nop())
			require.Error(t, err)
			require.True(t, IsLabelError(err))
			tt.check(t, err)
		})
	}
}

func TestParseEventUnknownStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	test, err := ParseEvent(completed("todo", "HW1", "Suite1", "add@5"), logger)
	require.NoError(t, err)
	require.False(t, test.Passed)
	require.Contains(t, buf.String(), `"status":"todo"`)
	require.Contains(t, buf.String(), `"level":"warn"`)
}
