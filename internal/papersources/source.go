// Package papersources provides clients for academic paper search services.
//
// Each service (arXiv, Semantic Scholar, OpenAlex) implements PaperSource and
// returns loosely shaped domain.RawPaper records. Normalization and
// deduplication happen downstream, so clients map fields as-is and leave
// missing values empty.
//
// Example usage:
//
//	source := arxiv.New(arxiv.Config{Enabled: true})
//	result, err := source.Search(ctx, papersources.SearchParams{
//		Query:      "graph neural networks",
//		MaxResults: 5,
//	})
package papersources

import (
	"context"
	"time"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

// SearchParams defines the parameters for a paper search.
type SearchParams struct {
	// Query is the free-text topic query (required).
	Query string

	// MaxResults limits the number of papers returned. A value of 0 uses
	// the source's default limit.
	MaxResults int
}

// SearchResult contains the papers returned by one source.
type SearchResult struct {
	// Papers holds the raw records in the order the source ranked them.
	// No ordering or uniqueness is guaranteed across sources.
	Papers []domain.RawPaper

	// TotalResults is the source's estimate of all matching papers.
	TotalResults int

	// Source identifies which paper source provided these results.
	Source domain.SourceType

	// SearchDuration is the time taken including network latency.
	SearchDuration time.Duration
}

// PaperSource is implemented by every paper search client.
type PaperSource interface {
	// Search queries the source. Implementations respect context
	// cancellation, apply their own rate limit, and wrap failures with
	// source context.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// SourceType returns the type identifier for this paper source.
	SourceType() domain.SourceType

	// Name returns a human-readable name for logs and metrics.
	Name() string

	// IsEnabled reports whether the source is configured for use.
	IsEnabled() bool
}
