package evaluation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// normalizeText lowercases s, removes every character that is neither
// alphanumeric nor whitespace, and collapses whitespace runs to one space.
func normalizeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// tokenize splits normalized text into terms of at least two characters.
func tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	terms := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			terms = append(terms, f)
		}
	}
	return terms
}
