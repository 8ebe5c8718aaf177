package synthesis

import (
	"fmt"
	"strings"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

// Digest defaults.
const (
	DefaultMaxPapers        = 10
	DefaultMaxAbstractChars = 600

	// NoPapersPlaceholder replaces the digest when there is nothing to render.
	NoPapersPlaceholder = "No papers found."

	truncationMarker = "..."
)

// ContextOptions bounds the size of the digest.
type ContextOptions struct {
	// MaxPapers is the number of leading papers rendered.
	MaxPapers int
	// MaxAbstractChars is a hard cut, in characters, applied to each abstract.
	MaxAbstractChars int
}

// DefaultContextOptions returns the documented digest bounds.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		MaxPapers:        DefaultMaxPapers,
		MaxAbstractChars: DefaultMaxAbstractChars,
	}
}

func (o ContextOptions) withDefaults() ContextOptions {
	if o.MaxPapers <= 0 {
		o.MaxPapers = DefaultMaxPapers
	}
	if o.MaxAbstractChars <= 0 {
		o.MaxAbstractChars = DefaultMaxAbstractChars
	}
	return o
}

// BuildContext renders the papers as numbered blocks separated by a blank
// line. Only the first MaxPapers papers are used, in input order.
func BuildContext(papers []domain.Paper, opts ContextOptions) string {
	opts = opts.withDefaults()
	if len(papers) == 0 {
		return NoPapersPlaceholder
	}
	if len(papers) > opts.MaxPapers {
		papers = papers[:opts.MaxPapers]
	}

	blocks := make([]string, 0, len(papers))
	for i, p := range papers {
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%d] %s (%s)\n", i+1, p.Title, p.Year)
		fmt.Fprintf(&sb, "AUTHORS: %s\n", p.Authors)
		fmt.Fprintf(&sb, "ABSTRACT: %s\n", truncate(p.Abstract, opts.MaxAbstractChars))
		if len(p.Keywords) > 0 {
			fmt.Fprintf(&sb, "KEYWORDS: %s\n", strings.Join(p.Keywords, ", "))
		}
		fmt.Fprintf(&sb, "URL: %s", p.URL)
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n\n")
}

// truncate cuts s to at most limit characters and appends the marker when
// anything was removed. It does not look for sentence boundaries.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}
