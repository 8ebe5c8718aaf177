package domain

import "time"

// SourceType identifies the search API that provided a paper.
type SourceType string

const (
	SourceTypeArXiv           SourceType = "arxiv"
	SourceTypeSemanticScholar SourceType = "semantic_scholar"
	SourceTypeOpenAlex        SourceType = "openalex"
)

// String returns the wire name of the source.
func (s SourceType) String() string {
	return string(s)
}

// ParseSourceType maps a request source name onto a known SourceType.
// Accepts the aliases "s2" and "semanticscholar".
func ParseSourceType(name string) (SourceType, bool) {
	switch name {
	case "arxiv":
		return SourceTypeArXiv, true
	case "semantic_scholar", "semanticscholar", "s2":
		return SourceTypeSemanticScholar, true
	case "openalex":
		return SourceTypeOpenAlex, true
	}
	return "", false
}

// SummarizeRequest asks for a review of the papers matching Query.
type SummarizeRequest struct {
	Query   string   `json:"query" validate:"required,max=500"`
	NPapers int      `json:"n_papers" validate:"gte=0,lte=100"`
	Sources []string `json:"sources" validate:"omitempty,max=10,dive,required"`
}

// SummarizeResult is the pipeline output returned to callers.
type SummarizeResult struct {
	Summary  SummaryDocument `json:"summary" yaml:"summary"`
	Eval     EvaluationScore `json:"eval" yaml:"eval"`
	Papers   []Paper         `json:"papers" yaml:"papers"`
	Metadata *RunMetadata    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// RunMetadata describes how a summarize run went. It is informational and
// never affects the summary or score.
type RunMetadata struct {
	RequestID       string            `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Query           string            `json:"query" yaml:"query"`
	Sources         []string          `json:"sources" yaml:"sources"`
	PapersRetrieved int               `json:"papers_retrieved" yaml:"papers_retrieved"`
	PapersUsed      int               `json:"papers_used" yaml:"papers_used"`
	SourceErrors    map[string]string `json:"source_errors,omitempty" yaml:"source_errors,omitempty"`
	ResponseStatus  string            `json:"response_status" yaml:"response_status"`
	Model           string            `json:"model,omitempty" yaml:"model,omitempty"`
	StartedAt       time.Time         `json:"started_at" yaml:"started_at"`
	Duration        string            `json:"duration" yaml:"duration"`
}
