// Package normalize turns raw OCR or product-database text into an ordered
// list of ingredient tokens. The cleanup is a fixed sequence of pure text
// passes followed by a split-trim-filter stage; order of first appearance is
// preserved and duplicates are kept (deduplication is the scorer's call).
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Label markers like "Ingredients:" or "contains". Text is already
	// lower-cased when these run, but the patterns stay case-insensitive so
	// the passes are safe to reorder.
	ingredientsMarkerRe = regexp.MustCompile(`(?i)ingredients?:?`)
	containsMarkerRe    = regexp.MustCompile(`(?i)contains?:?`)

	// Digit runs with an optional percent suffix ("20%", "5").
	digitRunRe = regexp.MustCompile(`\d+%?`)

	// Parenthesized sub-annotations ("(may contain soy)"). Non-greedy and
	// single-line, so unbalanced parentheses never swallow the whole label.
	parentheticalRe = regexp.MustCompile(`\(.*?\)`)

	// A run of separators counts as one delimiter boundary.
	separatorRe = regexp.MustCompile(`[,;\n]+`)

	lowercaseAlphaRe = regexp.MustCompile(`[a-z]`)
)

// pass is one order-dependent text transform.
type pass func(string) string

var cleanupPasses = []pass{
	strings.ToLower,
	func(s string) string { return ingredientsMarkerRe.ReplaceAllString(s, "") },
	func(s string) string { return containsMarkerRe.ReplaceAllString(s, "") },
	func(s string) string { return digitRunRe.ReplaceAllString(s, "") },
	func(s string) string { return parentheticalRe.ReplaceAllString(s, "") },
}

// Normalize converts raw label text into ordered ingredient tokens. An empty
// result is a valid return value here; the pipeline is responsible for
// treating it as a NoIngredientsFound failure.
func Normalize(raw string) []string {
	cleaned := raw
	for _, p := range cleanupPasses {
		cleaned = p(cleaned)
	}
	cleaned = strings.TrimSpace(cleaned)

	segments := separatorRe.Split(cleaned, -1)
	tokens := make([]string, 0, len(segments))
	for _, segment := range segments {
		token := strings.TrimSpace(segment)
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		// Drop punctuation/whitespace residue that survived the cleanup.
		if !lowercaseAlphaRe.MatchString(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
