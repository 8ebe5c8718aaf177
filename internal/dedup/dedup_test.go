package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

func TestCanonicalTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Deep Learning For X", "deep learning for x"},
		{"deep   learning\tfor\nx", "deep learning for x"},
		{"  padded  ", "padded"},
		{"", ""},
		{"Already canonical", "already canonical"},
		{"Punctuation, Stays!", "punctuation, stays!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalTitle(tt.input))
		})
	}
}

func TestDedupe_KeepsFirstOccurrence(t *testing.T) {
	papers := []domain.Paper{
		{Title: "Deep Learning For X", URL: "first"},
		{Title: "Other Paper", URL: "other"},
		{Title: "deep   learning for x", URL: "second"},
		{Title: "  DEEP LEARNING FOR X  ", URL: "third"},
	}

	got := Dedupe(papers)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].URL)
	assert.Equal(t, "other", got[1].URL)
}

func TestDedupe_Idempotent(t *testing.T) {
	papers := []domain.Paper{
		{Title: "A"}, {Title: "b"}, {Title: "a"}, {Title: "B "}, {Title: "c"},
	}

	once := Dedupe(papers)
	twice := Dedupe(once)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 3)
}

func TestDedupe_NoFuzzyMatching(t *testing.T) {
	papers := []domain.Paper{
		{Title: "Deep learning for X"},
		{Title: "Deep learning for X."},
		{Title: "Deep-learning for X"},
	}
	assert.Len(t, Dedupe(papers), 3)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
	assert.NotNil(t, Dedupe(nil))
}

func TestDedupeWithStats(t *testing.T) {
	out, stats := DedupeWithStats([]domain.Paper{{Title: "x"}, {Title: "X"}, {Title: "y"}})
	assert.Len(t, out, 2)
	assert.Equal(t, Stats{Input: 3, Kept: 2, Dropped: 1}, stats)
}
