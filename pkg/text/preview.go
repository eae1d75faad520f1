package text

import (
	"strings"
	"time"
	"unicode/utf8"
)

const wordsPerMinute = 150

// Preview returns the first n runes of text, marked with "..." when cut.
func Preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)

	return string(runes[:n]) + "..."
}

// EstimateDuration guesses the spoken length of text at an average speaking
// rate, with some headroom for pauses.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))

	if words == 0 {
		return 0
	}

	minutes := float64(words) / wordsPerMinute * 1.1

	return time.Duration(minutes * float64(time.Minute))
}
