// Package names normalizes company names for deduplication and matching.
package names

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are corporate suffixes stripped during normalization so
// "Acme Corp." and "Acme" key to the same record.
var legalSuffixes = map[string]bool{
	"inc":         true,
	"llc":         true,
	"ltd":         true,
	"corp":        true,
	"corporation": true,
	"co":          true,
	"plc":         true,
	"gmbh":        true,
	"ag":          true,
	"sa":          true,
}

var (
	punctRe = regexp.MustCompile(`[^\w\s&-]`)
	wsRe    = regexp.MustCompile(`\s+`)
)

// Key returns the normalized dedupe key for a company name: NFKC-folded,
// lowercased, punctuation stripped, legal suffixes removed, whitespace
// collapsed. An empty key means the name carries no usable identity.
func Key(name string) string {
	n := norm.NFKC.String(strings.TrimSpace(name))
	n = strings.ToLower(n)
	n = punctRe.ReplaceAllString(n, " ")

	words := strings.Fields(n)
	for len(words) > 1 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}

	return wsRe.ReplaceAllString(strings.Join(words, " "), " ")
}

// Clean tidies a display name without destroying its casing: trims,
// collapses whitespace, folds compatibility forms.
func Clean(name string) string {
	n := norm.NFKC.String(strings.TrimSpace(name))
	return wsRe.ReplaceAllString(n, " ")
}

// Compact collapses whitespace in s and truncates it to maxLen runes,
// appending an ellipsis when truncated. Used for evidence snippets and
// rationale fields.
func Compact(s string, maxLen int) string {
	s = wsRe.ReplaceAllString(strings.TrimSpace(s), " ")
	runes := []rune(s)
	if maxLen <= 3 || len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
