package rubric

import (
	"strings"

	"github.com/autograde/autograde/model"
	"github.com/rs/zerolog"
)

const (
	labelCount     = 3
	pointSeparator = "@"
)

// ParseEvent validates a completed test event and decomposes its labels.
//
// An unexpected status is not an error: it is logged and the test counts as
// failed.
func ParseEvent(ev model.RawEvent, logger zerolog.Logger) (model.ParsedTest, error) {
	if len(ev.Labels) != labelCount {
		return model.ParsedTest{}, &InvalidLabelError{Labels: ev.Labels}
	}

	name, points, err := SplitTestName(ev.Labels[2])
	if err != nil {
		return model.ParsedTest{}, err
	}

	passed, known := decodeStatus(ev.Status)
	if !known {
		logger.Warn().
			Str("status", ev.Status).
			Str("suite", ev.Labels[1]).
			Str("test", name).
			Int("line", ev.Line).
			Msg("Unexpected test status, counting test as failed")
	}

	return model.ParsedTest{
		Report: ev.Labels[0],
		Suite:  ev.Labels[1],
		Name:   name,
		Points: points,
		Passed: passed,
	}, nil
}

// SplitTestName splits a "name@points" label into its parts.
func SplitTestName(label string) (string, float64, error) {
	parts := strings.Split(label, pointSeparator)
	if len(parts) != 2 {
		return "", 0, &InvalidTestNameError{Name: label}
	}

	name := strings.TrimSpace(parts[0])
	rawPoints := strings.TrimSpace(parts[1])
	if name == "" || rawPoints == "" {
		return "", 0, &InvalidTestNameError{Name: label}
	}

	points, ok := ParsePoints(rawPoints)
	if !ok {
		return "", 0, &InvalidPointsError{Name: label, Points: rawPoints}
	}
	return name, points, nil
}

// decodeStatus maps a harness status to pass/fail and reports whether it was recognized.
func decodeStatus(status string) (passed, known bool) {
	switch status {
	case model.StatusPass:
		return true, true
	case model.StatusFail:
		return false, true
	default:
		return false, false
	}
}
