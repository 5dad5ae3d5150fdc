package rubric

import (
	"strings"

	"github.com/autograde/autograde/model"
)

const zeroReportHeader = "Total Score: 0"

// Render formats an aggregation result as the rubric report text.
func Render(res *model.Result) string {
	lines := []string{
		res.Name + " Total Score: " + formatScore(res.Earned, res.Possible),
		"",
	}

	for _, suite := range res.Suites {
		lines = append(lines, "Test Suite: "+suite.Name, "")
		for _, test := range suite.Tests {
			lines = append(lines, "  - Test Case "+test.Name+": "+formatScore(test.Earned(), test.Points))
		}
		lines = append(lines, "", "  Subtotal: "+formatScore(suite.Earned, suite.Possible), "")
	}

	return strings.Join(lines, "\n")
}

// RenderZero formats the report given to a submission that could not be graded.
func RenderZero(reason string) string {
	return zeroReportHeader + "\n\nReason: " + reason
}
