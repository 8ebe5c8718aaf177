package evaluation

import (
	"slices"
	"strings"
	"unicode"
)

// Default depth parameters.
const (
	DefaultSentenceLengthCap = 20.0
	DefaultKeywordHitsCap    = 10.0
)

var defaultDepthKeywords = []string{"method", "result", "analysis", "study", "data", "experiment", "model"}

// DefaultDepthKeywords returns a copy of the research vocabulary counted by
// LexicalDepth.
func DefaultDepthKeywords() []string {
	return slices.Clone(defaultDepthKeywords)
}

// LexicalDepth scores depth as the mean of two capped ratios: average words
// per sentence over SentenceLengthCap, and keyword occurrences over
// KeywordHitsCap. Keywords match case-insensitively as whole words.
type LexicalDepth struct {
	SentenceLengthCap float64
	KeywordHitsCap    float64
	keywords          map[string]struct{}
}

// NewLexicalDepth builds a LexicalDepth. Non-positive caps and an empty
// keyword list fall back to the defaults.
func NewLexicalDepth(sentenceLengthCap, keywordHitsCap float64, keywords []string) *LexicalDepth {
	if sentenceLengthCap <= 0 {
		sentenceLengthCap = DefaultSentenceLengthCap
	}
	if keywordHitsCap <= 0 {
		keywordHitsCap = DefaultKeywordHitsCap
	}
	if len(keywords) == 0 {
		keywords = defaultDepthKeywords
	}
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}
	return &LexicalDepth{
		SentenceLengthCap: sentenceLengthCap,
		KeywordHitsCap:    keywordHitsCap,
		keywords:          set,
	}
}

// Name implements DepthScorer.
func (d *LexicalDepth) Name() string { return "lexical" }

// Score implements DepthScorer.
func (d *LexicalDepth) Score(summary string) float64 {
	sentences := splitSentences(summary)
	if len(sentences) == 0 {
		return 0
	}

	var words int
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}
	avgWords := float64(words) / float64(len(sentences))
	lengthScore := min(avgWords/d.SentenceLengthCap, 1)

	hits := d.keywordHits(summary)
	keywordScore := min(float64(hits)/d.KeywordHitsCap, 1)

	return (lengthScore + keywordScore) / 2
}

// keywordHits counts whole-word keyword occurrences. Words are maximal runs
// of letters, digits and underscores, matching a \b word boundary.
func (d *LexicalDepth) keywordHits(text string) int {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	var hits int
	for _, w := range words {
		if _, ok := d.keywords[w]; ok {
			hits++
		}
	}
	return hits
}

// splitSentences splits on '.', '!' and '?' and drops fragments that are
// blank after trimming.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
