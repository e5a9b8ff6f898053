// Package compress provides deterministic prompt shrinking: cleaning,
// stopword removal, whitespace normalization, and optional truncation.
// Every function is pure and total.
package compress

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// stopwords is the fixed set removed during compression, matched on the
// lowercase form of each whitespace-delimited token.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "of": {},
	"in": {}, "to": {}, "is": {}, "on": {},
}

var (
	wsRun   = regexp.MustCompile(`\s+`)
	htmlTag = regexp.MustCompile(`<[^>]+>`)
)

// Collapse replaces every whitespace run (including newlines) with a
// single space and trims both ends.
func Collapse(text string) string {
	return strings.TrimSpace(wsRun.ReplaceAllString(text, " "))
}

// Clean prepares raw prompt text for compression and token counting:
// HTML tags are stripped, unicode is NFKC-normalized (fancy quotes,
// ligatures, full-width forms), and whitespace is collapsed.
func Clean(text string) string {
	text = htmlTag.ReplaceAllString(text, "")
	text = norm.NFKC.String(text)
	return Collapse(text)
}

// Compress shrinks text by collapsing whitespace and dropping stopwords.
// When maxTokens > 0, only the first maxTokens remaining
// whitespace-delimited tokens are kept. Empty input yields empty output.
func Compress(text string, maxTokens int) string {
	collapsed := Collapse(text)
	if collapsed == "" {
		return ""
	}

	words := strings.Split(collapsed, " ")
	kept := words[:0]
	for _, w := range words {
		if _, skip := stopwords[strings.ToLower(w)]; skip {
			continue
		}
		kept = append(kept, w)
	}

	if maxTokens > 0 && len(kept) > maxTokens {
		kept = kept[:maxTokens]
	}
	return strings.Join(kept, " ")
}
