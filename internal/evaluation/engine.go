package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

// Coverage strategy names.
const (
	StrategyTFIDF  = "tfidf"
	StrategyROUGE1 = "rouge1"
)

// Default score weights.
const (
	DefaultCoverageWeight  = 0.4
	DefaultDepthWeight     = 0.3
	DefaultStructureWeight = 0.3
)

// CoverageScorer measures how much of the reference material a summary
// reflects.
type CoverageScorer interface {
	Name() string
	// Score returns a value in [0,1]; no references score 0.
	Score(summary string, references []string) float64
}

// DepthScorer measures how substantive a summary is on its own.
type DepthScorer interface {
	Name() string
	// Score returns a value in [0,1]; text without sentences scores 0.
	Score(summary string) float64
}

// Config holds the scoring policy.
type Config struct {
	CoverageStrategy  string
	CoverageWeight    float64
	DepthWeight       float64
	StructureWeight   float64
	SentenceLengthCap float64
	KeywordHitsCap    float64
	DepthKeywords     []string
}

// DefaultConfig returns the reference scoring policy.
func DefaultConfig() Config {
	return Config{
		CoverageStrategy:  StrategyTFIDF,
		CoverageWeight:    DefaultCoverageWeight,
		DepthWeight:       DefaultDepthWeight,
		StructureWeight:   DefaultStructureWeight,
		SentenceLengthCap: DefaultSentenceLengthCap,
		KeywordHitsCap:    DefaultKeywordHitsCap,
		DepthKeywords:     DefaultDepthKeywords(),
	}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithCoverageScorer replaces the configured coverage strategy.
func WithCoverageScorer(s CoverageScorer) Option {
	return func(e *Engine) { e.coverage = s }
}

// WithDepthScorer replaces the lexical depth scorer.
func WithDepthScorer(s DepthScorer) Option {
	return func(e *Engine) { e.depth = s }
}

// Engine computes EvaluationScores. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	coverage        CoverageScorer
	depth           DepthScorer
	coverageWeight  float64
	depthWeight     float64
	structureWeight float64
}

// NewEngine creates an Engine for cfg.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		coverageWeight:  cfg.CoverageWeight,
		depthWeight:     cfg.DepthWeight,
		structureWeight: cfg.StructureWeight,
		depth:           NewLexicalDepth(cfg.SentenceLengthCap, cfg.KeywordHitsCap, cfg.DepthKeywords),
	}

	switch strings.ToLower(cfg.CoverageStrategy) {
	case "", StrategyTFIDF:
		e.coverage = TFIDFCoverage{}
	case StrategyROUGE1:
		e.coverage = ROUGE1Coverage{}
	default:
		return nil, fmt.Errorf("unsupported coverage strategy: %q", cfg.CoverageStrategy)
	}

	if sum := e.coverageWeight + e.depthWeight + e.structureWeight; math.Abs(sum-1) > 1e-6 {
		return nil, fmt.Errorf("evaluation weights must sum to 1, got %.4f", sum)
	}

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewDefaultEngine returns an Engine with the reference policy.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// CoverageStrategy returns the name of the active coverage scorer.
func (e *Engine) CoverageStrategy() string {
	return e.coverage.Name()
}

// Evaluate scores doc against the papers it was synthesized from. A blank
// summary text scores 0 everywhere without running any scorer.
func (e *Engine) Evaluate(doc domain.SummaryDocument, papers []domain.Paper) domain.EvaluationScore {
	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return domain.EvaluationScore{}
	}

	coverage := e.coverage.Score(text, References(papers))
	depth := e.depth.Score(text)
	structure := StructureScore(doc)
	overall := e.coverageWeight*coverage + e.depthWeight*depth + e.structureWeight*structure

	return domain.EvaluationScore{
		Coverage:  round3(coverage),
		Depth:     round3(depth),
		Structure: round3(structure),
		Overall:   round3(overall),
	}
}

// References returns the non-empty abstracts of papers, in order.
func References(papers []domain.Paper) []string {
	refs := make([]string, 0, len(papers))
	for _, p := range papers {
		if p.Abstract != "" {
			refs = append(refs, p.Abstract)
		}
	}
	return refs
}

// ComputeCoverage scores text against references with the TF-IDF strategy.
func ComputeCoverage(text string, references []string) float64 {
	return TFIDFCoverage{}.Score(text, references)
}

// ComputeDepth scores text with the default lexical depth policy.
func ComputeDepth(text string) float64 {
	return NewLexicalDepth(0, 0, nil).Score(text)
}

// ComputeStructure is StructureScore.
func ComputeStructure(doc domain.SummaryDocument) float64 {
	return StructureScore(doc)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
