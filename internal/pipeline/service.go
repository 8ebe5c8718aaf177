// Package pipeline runs one summarize request end to end: search the
// requested paper sources, normalize and dedupe the records, synthesize the
// review, validate it and score it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/helixir/review-synthesis-service/internal/dedup"
	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/observability"
	"github.com/helixir/review-synthesis-service/internal/papersources"
	"github.com/helixir/review-synthesis-service/internal/synthesis"
)

// Request defaults applied when the caller omits them.
const (
	DefaultPapers        = 5
	DefaultSearchTimeout = 45 * time.Second
)

// PaperSearcher searches paper sources. Satisfied by *papersources.Registry.
type PaperSearcher interface {
	SearchSources(ctx context.Context, params papersources.SearchParams, sourceTypes []domain.SourceType) []papersources.SourceResult
}

// Synthesizer produces the raw model outcome for a paper set. Satisfied by
// *synthesis.Invoker.
type Synthesizer interface {
	Invoke(ctx context.Context, papers []domain.Paper) synthesis.Outcome
}

// Scorer evaluates a review against its papers. Satisfied by
// *evaluation.Engine.
type Scorer interface {
	Evaluate(doc domain.SummaryDocument, papers []domain.Paper) domain.EvaluationScore
}

// EventPublisher publishes lifecycle events. Satisfied by
// *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}

// Config holds request defaults and limits.
type Config struct {
	// DefaultPapers is used when a request leaves n_papers at zero.
	DefaultPapers int
	// MaxPapers is the largest n_papers accepted.
	MaxPapers int
	// DefaultSources is used when a request names no sources.
	DefaultSources []string
	// SearchTimeout bounds the fan-out search.
	SearchTimeout time.Duration
}

// DefaultConfig returns the documented request defaults.
func DefaultConfig() Config {
	return Config{
		DefaultPapers:  DefaultPapers,
		MaxPapers:      50,
		DefaultSources: []string{string(domain.SourceTypeArXiv)},
		SearchTimeout:  DefaultSearchTimeout,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublisher enables lifecycle event publishing.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// Service is the summarize pipeline. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	cfg       Config
	searcher  PaperSearcher
	invoker   Synthesizer
	scorer    Scorer
	publisher EventPublisher
	validate  *validator.Validate
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service.
func NewService(cfg Config, searcher PaperSearcher, invoker Synthesizer, scorer Scorer, opts ...Option) *Service {
	if cfg.DefaultPapers <= 0 {
		cfg.DefaultPapers = DefaultPapers
	}
	if len(cfg.DefaultSources) == 0 {
		cfg.DefaultSources = []string{string(domain.SourceTypeArXiv)}
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}

	s := &Service{
		cfg:      cfg,
		searcher: searcher,
		invoker:  invoker,
		scorer:   scorer,
		validate: NewValidator(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "pipeline").Logger()
	return s
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize applies request defaults, validates the request and resolves
// source names. The returned request has NPapers and Sources filled in.
func (s *Service) Normalize(req domain.SummarizeRequest) (domain.SummarizeRequest, []domain.SourceType, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.NPapers == 0 {
		req.NPapers = s.cfg.DefaultPapers
	}
	if len(req.Sources) == 0 {
		req.Sources = append([]string(nil), s.cfg.DefaultSources...)
	}

	if err := s.validate.Struct(req); err != nil {
		return req, nil, toValidationError(err)
	}
	if s.cfg.MaxPapers > 0 && req.NPapers > s.cfg.MaxPapers {
		return req, nil, domain.NewValidationError("n_papers", fmt.Sprintf("must be at most %d", s.cfg.MaxPapers))
	}

	types := make([]domain.SourceType, 0, len(req.Sources))
	seen := make(map[domain.SourceType]bool, len(req.Sources))
	for _, name := range req.Sources {
		st, ok := domain.ParseSourceType(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return req, nil, domain.NewValidationError("sources", fmt.Sprintf("unknown source %q", name))
		}
		if seen[st] {
			continue
		}
		seen[st] = true
		types = append(types, st)
	}
	return req, types, nil
}

// Summarize runs the full pipeline for one request. Only invalid input and a
// search that failed on every source are reported as errors; model and
// scoring problems degrade into the returned document.
func (s *Service) Summarize(ctx context.Context, req domain.SummarizeRequest) (*domain.SummarizeResult, error) {
	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
		ctx = observability.WithRequestID(ctx, requestID)
	}

	req, sourceTypes, err := s.Normalize(req)
	if err != nil {
		return nil, err
	}

	logger := observability.LoggerWithContext(ctx, observability.WithSummaryContext(s.logger, requestID, req.Query))
	start := time.Now()
	s.metrics.RecordSummaryStarted()

	ctx, span := observability.StartSpan(ctx, "pipeline.summarize",
		attribute.String("request_id", requestID),
		attribute.Int("n_papers", req.NPapers),
	)
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()

	logger.Info().
		Int("n_papers", req.NPapers).
		Strs("sources", req.Sources).
		Msg("summarize started")

	papers, retrieved, sourceErrors, err := s.search(ctx, logger, req, sourceTypes)
	if err != nil {
		spanErr = err
		s.metrics.RecordSummaryFailed(time.Since(start).Seconds())
		s.publishFailed(ctx, logger, requestID, req.Query, err)
		return nil, err
	}

	outcome := s.invoker.Invoke(ctx, papers)
	doc, status := synthesis.ValidateWithStatus(outcome)
	s.metrics.RecordValidation(status)

	score := s.scorer.Evaluate(doc, papers)
	s.metrics.RecordEvaluation(score.Coverage, score.Depth, score.Structure, score.Overall)

	elapsed := time.Since(start)
	s.metrics.RecordSummaryCompleted(elapsed.Seconds())

	logger.Info().
		Int("papers_retrieved", retrieved).
		Int("papers_used", len(papers)).
		Str("response_status", status).
		Float64("overall", score.Overall).
		Dur("duration", elapsed).
		Msg("summarize completed")

	result := &domain.SummarizeResult{
		Summary: doc,
		Eval:    score,
		Papers:  papers,
		Metadata: &domain.RunMetadata{
			RequestID:       requestID,
			Query:           req.Query,
			Sources:         req.Sources,
			PapersRetrieved: retrieved,
			PapersUsed:      len(papers),
			SourceErrors:    sourceErrors,
			ResponseStatus:  status,
			Model:           outcome.Model,
			StartedAt:       start.UTC(),
			Duration:        elapsed.Round(time.Millisecond).String(),
		},
	}

	s.publish(ctx, logger, domain.EventTypeSummaryCompleted, requestID, domain.SummaryCompletedPayload{
		RequestID:      requestID,
		Query:          req.Query,
		PaperCount:     len(papers),
		ResponseStatus: status,
		Eval:           score,
		Summary:        doc,
		DurationMs:     elapsed.Milliseconds(),
	})

	return result, nil
}

// Evaluate scores an existing review against its papers.
func (s *Service) Evaluate(doc domain.SummaryDocument, papers []domain.Paper) domain.EvaluationScore {
	return s.scorer.Evaluate(doc, papers)
}

// search fans out to the sources and returns the normalized, deduplicated
// paper set truncated to n_papers. An error is returned only when every
// source failed.
func (s *Service) search(ctx context.Context, logger zerolog.Logger, req domain.SummarizeRequest, sourceTypes []domain.SourceType) ([]domain.Paper, int, map[string]string, error) {
	searchCtx, cancel := context.WithTimeout(ctx, s.cfg.SearchTimeout)
	defer cancel()

	searchCtx, span := observability.StartSpan(searchCtx, "pipeline.search",
		attribute.Int("source_count", len(sourceTypes)),
	)

	for _, st := range sourceTypes {
		s.metrics.RecordSearchStarted(string(st))
	}

	results := s.searcher.SearchSources(searchCtx, papersources.SearchParams{
		Query:      req.Query,
		MaxResults: req.NPapers,
	}, sourceTypes)

	var raws []domain.RawPaper
	var sourceErrors map[string]string
	failed, unusable := 0, 0
	for _, sr := range results {
		name := string(sr.Source)
		if sr.Error != nil {
			failed++
			if errors.Is(sr.Error, papersources.ErrSourceNotRegistered) || errors.Is(sr.Error, papersources.ErrSourceDisabled) {
				unusable++
			}
			if sourceErrors == nil {
				sourceErrors = make(map[string]string)
			}
			sourceErrors[name] = sr.Error.Error()
			s.metrics.RecordSearchFailed(name, sr.Duration.Seconds())
			logger.Warn().Err(sr.Error).Str("source", name).Msg("source search failed")
			continue
		}

		count := 0
		if sr.Result != nil {
			count = len(sr.Result.Papers)
			raws = append(raws, sr.Result.Papers...)
		}
		s.metrics.RecordSearchCompleted(name, count, sr.Duration.Seconds())
		logger.Debug().Str("source", name).Int("paper_count", count).Msg("source search completed")
	}

	if len(results) > 0 && failed == len(results) {
		err := fmt.Errorf("%w: all %d paper sources failed", domain.ErrServiceUnavailable, failed)
		if unusable == failed {
			err = fmt.Errorf("%w: none of the %d requested sources is registered and enabled", domain.ErrNoSources, failed)
		}
		observability.EndSpan(span, err)
		return nil, 0, sourceErrors, err
	}

	papers, stats := dedup.DedupeWithStats(domain.NormalizePapers(raws))
	s.metrics.RecordPapers(stats.Input, stats.Dropped)
	if len(papers) > req.NPapers {
		papers = papers[:req.NPapers]
	}

	span.SetAttributes(
		attribute.Int("papers_retrieved", stats.Input),
		attribute.Int("papers_duplicate", stats.Dropped),
	)
	observability.EndSpan(span, nil)

	if len(papers) == 0 {
		logger.Warn().Msg("no papers found, synthesizing from an empty digest")
	}
	return papers, stats.Input, sourceErrors, nil
}

func (s *Service) publishFailed(ctx context.Context, logger zerolog.Logger, requestID, query string, cause error) {
	s.publish(ctx, logger, domain.EventTypeSummaryFailed, requestID, domain.SummaryFailedPayload{
		RequestID: requestID,
		Query:     query,
		Error:     cause.Error(),
	})
}

// publish emits an event if a publisher is configured. Failures are logged
// and never affect the request.
func (s *Service) publish(ctx context.Context, logger zerolog.Logger, eventType, requestID string, payload interface{}) {
	if s.publisher == nil {
		return
	}

	correlationID := observability.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = requestID
	}

	event, err := domain.NewEvent(eventType, correlationID, payload)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

// toValidationError converts the first validator failure into a
// domain.ValidationError.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("request", err.Error())
	}

	fe := verrs[0]
	field := fe.Field()
	if ns := fe.Namespace(); strings.Contains(ns, ".") {
		_, field, _ = strings.Cut(ns, ".")
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "max", "lte":
		msg = fmt.Sprintf("must be at most %s", fe.Param())
	case "min", "gte":
		msg = fmt.Sprintf("must be at least %s", fe.Param())
	default:
		msg = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return domain.NewValidationError(field, msg)
}
