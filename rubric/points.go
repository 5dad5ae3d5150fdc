package rubric

import (
	"math"
	"strconv"
	"strings"
)

// FormatPoints renders a point value: whole numbers without a decimal point,
// fractions in their shortest decimal form.
func FormatPoints(p float64) string {
	if p == math.Trunc(p) && math.Abs(p) < 1e15 {
		return strconv.FormatInt(int64(p), 10)
	}
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// ParsePoints parses a non-negative, finite, decimal point value.
func ParsePoints(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.ToLower(strings.TrimLeft(s, "+-"))
	if strings.HasPrefix(digits, "0x") {
		return 0, false
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0, false
	}
	return p, true
}

func formatScore(earned, possible float64) string {
	return FormatPoints(earned) + " / " + FormatPoints(possible)
}
