package text

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
	}{
		{"empty", "", ""},
		{"plain", "Hello world", "Hello world"},
		{"entities", "Fish &amp; Chips", "Fish & Chips"},
		{"quotes", "“Hi”, it’s me", `"Hi", it's me`},
		{"tags", "<p>Hello <b>there</b></p>", "Hello there"},
		{"brackets", "x > y", "x y"},
		{"whitespace", "  line one\n\n\tline   two  ", "line one line two"},
		{"nbsp", "a&nbsp;b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.output, Sanitize(tt.input))
		})
	}
}

func TestPreview(t *testing.T) {
	require.Equal(t, "short", Preview("short", 50))
	require.Equal(t, "abc...", Preview("abcdef", 3))
	require.Equal(t, "日本...", Preview("日本語", 2))
}

func TestEstimateDuration(t *testing.T) {
	require.Zero(t, EstimateDuration("   "))

	d := EstimateDuration("one two three four five six seven eight nine ten")

	require.InDelta(t, float64(4400*time.Millisecond), float64(d), float64(time.Millisecond))
}
