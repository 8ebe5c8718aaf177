// Package dedup removes duplicate papers by canonical title.
//
// Matching is exact on the canonical key only. Titles that differ by a
// single word or punctuation mark are treated as distinct papers.
package dedup

import (
	"strings"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

// CanonicalTitle lowercases a title, collapses every whitespace run to a
// single space and trims the ends.
func CanonicalTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// Dedupe keeps the first paper seen for each canonical title, in input
// order. Applying it twice yields the same result as applying it once.
func Dedupe(papers []domain.Paper) []domain.Paper {
	seen := make(map[string]struct{}, len(papers))
	out := make([]domain.Paper, 0, len(papers))
	for _, p := range papers {
		key := CanonicalTitle(p.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Stats reports how many papers Dedupe dropped.
type Stats struct {
	Input   int
	Kept    int
	Dropped int
}

// DedupeWithStats is Dedupe plus a count of what was removed.
func DedupeWithStats(papers []domain.Paper) ([]domain.Paper, Stats) {
	out := Dedupe(papers)
	return out, Stats{
		Input:   len(papers),
		Kept:    len(out),
		Dropped: len(papers) - len(out),
	}
}
