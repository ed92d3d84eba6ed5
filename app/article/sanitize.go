package article

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// Leading ordinal/bullet markers LLMs like to prefix titles with: digits,
// dashes, the long vowel mark, circled numbers, followed by dot/space/paren
// separators. Quote characters are stripped wherever they appear.
var titleNoiseRe = regexp.MustCompile(`^[0-9.\-ー①-⑩]+[.\s）)]*|[「」"]`)

// CleanTitle strips ordinal markers and surrounding quotes from a generated
// title line.
func CleanTitle(title string) string {
	return strings.TrimSpace(titleNoiseRe.ReplaceAllString(title, ""))
}

// FirstLine returns the first non-empty line of an LLM response. Models often
// return a numbered list of candidates; only the first is used.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var headingOpenRe = regexp.MustCompile(`(<h2[^>]*>)`)

// EnhanceHeadings wraps h2 heading text in a span that renders larger and
// bold. WordPress themes style h2 inconsistently, so the emphasis is baked
// into the content.
func EnhanceHeadings(body string) string {
	enhanced := headingOpenRe.ReplaceAllString(body,
		`${1}<span style="font-size: 1.5em; font-weight: bold;">`)
	return strings.ReplaceAll(enhanced, "</h2>", "</span></h2>")
}

const maxImageQueryLen = 100

// CleanImageQuery normalizes an LLM-derived image search phrase into the
// ASCII query the image API expects: full-width characters are folded to
// their narrow forms, punctuation is dropped, and at most three words are
// kept within the API's 100-character limit.
func CleanImageQuery(query string) string {
	folded := width.Narrow.String(query)

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	if len(words) > 3 {
		words = words[:3]
	}

	result := strings.Join(words, " ")
	if len(result) > maxImageQueryLen {
		result = result[:maxImageQueryLen]
	}

	return strings.TrimSpace(result)
}
