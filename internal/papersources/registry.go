package papersources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

// ErrSourceNotRegistered is returned for a requested source type that no
// client was registered for.
var ErrSourceNotRegistered = errors.New("paper source not registered")

// ErrSourceDisabled is returned for a requested source that is registered
// but disabled by configuration.
var ErrSourceDisabled = errors.New("paper source disabled")

// SourceResult holds the outcome of searching one source.
type SourceResult struct {
	// Source identifies which paper source was searched.
	Source domain.SourceType

	// Result is nil when Error is set.
	Result *SearchResult

	// Error is the search failure, if any.
	Error error

	// Duration is the wall time spent on this source.
	Duration time.Duration
}

// Registry holds the configured paper sources and fans searches out to
// them. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceType]PaperSource
	limit   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]PaperSource),
	}
}

// SetConcurrency caps how many sources are searched at once. Zero or less
// means no cap.
func (r *Registry) SetConcurrency(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = n
}

// Register adds a source, replacing any source of the same type.
func (r *Registry) Register(source PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns a source by type, or nil if not found.
func (r *Registry) Get(sourceType domain.SourceType) PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// EnabledSources returns the enabled sources ordered by type name.
func (r *Registry) EnabledSources() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].SourceType() < sources[j].SourceType()
	})
	return sources
}

// SearchSources searches the requested sources concurrently and returns one
// result per requested type, in request order. An empty request searches
// every enabled source. Failures are reported per source and never cancel
// the other searches.
func (r *Registry) SearchSources(ctx context.Context, params SearchParams, sourceTypes []domain.SourceType) []SourceResult {
	if len(sourceTypes) == 0 {
		for _, s := range r.EnabledSources() {
			sourceTypes = append(sourceTypes, s.SourceType())
		}
	}
	if len(sourceTypes) == 0 {
		return nil
	}

	r.mu.RLock()
	limit := r.limit
	sources := make([]PaperSource, len(sourceTypes))
	for i, st := range sourceTypes {
		sources[i] = r.sources[st]
	}
	r.mu.RUnlock()

	results := make([]SourceResult, len(sourceTypes))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, st := range sourceTypes {
		source := sources[i]
		results[i].Source = st

		switch {
		case source == nil:
			results[i].Error = fmt.Errorf("%w: %s", ErrSourceNotRegistered, st)
			continue
		case !source.IsEnabled():
			results[i].Error = fmt.Errorf("%w: %s", ErrSourceDisabled, st)
			continue
		}

		g.Go(func() error {
			start := time.Now()
			result, err := source.Search(ctx, params)
			results[i].Result = result
			results[i].Error = err
			results[i].Duration = time.Since(start)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
