package text

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]+>`)

	quoteReplacer = strings.NewReplacer(
		"\u201c", `"`,
		"\u201d", `"`,
		"\u201e", `"`,
		"\u201f", `"`,
		"`", `"`,

		"\u2018", "'",
		"\u2019", "'",
		"\u201a", "'",
		"\u00b4", "'",

		"\u00a0", " ",
	)
)

// Sanitize normalizes quotes and strips markup from user text before synthesis.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	text = html.UnescapeString(text)
	text = quoteReplacer.Replace(text)

	text = tagPattern.ReplaceAllString(text, " ")

	text = strings.ReplaceAll(text, "<", " ")
	text = strings.ReplaceAll(text, ">", " ")

	return strings.Join(strings.Fields(text), " ")
}
