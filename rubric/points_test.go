package rubric

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatPoints(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 5, want: "5"},
		{in: 5.0, want: "5"},
		{in: 2.5, want: "2.5"},
		{in: 0.1 + 0.2, want: "0.30000000000000004"},
		{in: 2.5 + 2.5, want: "5"},
		{in: 100, want: "100"},
		{in: 1.25, want: "1.25"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, FormatPoints(tt.in))
		})
	}
}

func TestParsePoints(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "5", want: 5, wantOK: true},
		{in: " 2.5 ", want: 2.5, wantOK: true},
		{in: "5.0", want: 5, wantOK: true},
		{in: "0", want: 0, wantOK: true},
		{in: "-1", wantOK: false},
		{in: "five", wantOK: false},
		{in: "NaN", wantOK: false},
		{in: "Inf", wantOK: false},
		{in: "", wantOK: false},
		{in: "0x1p3", wantOK: false},
		{in: "0X10", wantOK: false},
		{in: "+0x1p3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePoints(tt.in)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.want, got)
			}
		})
	}
}
