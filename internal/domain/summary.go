package domain

import (
	"encoding/json"
	"strings"
)

// Summary document field names as they appear on the wire.
const (
	FieldParagraphs   = "paragraphs"
	FieldKeyFindings  = "key_findings"
	FieldLimitations  = "limitations"
	FieldFutureWork   = "future_work"
	FieldMethods      = "methods"
	FieldWhatsNew     = "whats_new"
	FieldOpenProblems = "open_problems"
	FieldTop5Papers   = "top5_papers"
)

// SummaryFields lists all eight summary document keys in schema order.
var SummaryFields = []string{
	FieldParagraphs,
	FieldKeyFindings,
	FieldLimitations,
	FieldFutureWork,
	FieldMethods,
	FieldWhatsNew,
	FieldOpenProblems,
	FieldTop5Papers,
}

// NarrativeSections are the six sections scored for structural completeness.
var NarrativeSections = []string{
	FieldKeyFindings,
	FieldLimitations,
	FieldFutureWork,
	FieldMethods,
	FieldWhatsNew,
	FieldOpenProblems,
}

// UnavailableParagraph is the paragraph used when the model supplied none.
const UnavailableParagraph = "Summary unavailable."

// TopPaper is an entry of the top5_papers list.
type TopPaper struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// SummaryDocument is the structured literature review. Every field is
// always a sequence; an empty field is encoded as [] rather than null.
type SummaryDocument struct {
	Paragraphs   []string   `json:"paragraphs" yaml:"paragraphs"`
	KeyFindings  []string   `json:"key_findings" yaml:"key_findings"`
	Limitations  []string   `json:"limitations" yaml:"limitations"`
	FutureWork   []string   `json:"future_work" yaml:"future_work"`
	Methods      []string   `json:"methods" yaml:"methods"`
	WhatsNew     []string   `json:"whats_new" yaml:"whats_new"`
	OpenProblems []string   `json:"open_problems" yaml:"open_problems"`
	Top5Papers   []TopPaper `json:"top5_papers" yaml:"top5_papers"`
}

// NewSummaryDocument returns a document with every field set to an empty
// sequence.
func NewSummaryDocument() SummaryDocument {
	return SummaryDocument{
		Paragraphs:   []string{},
		KeyFindings:  []string{},
		Limitations:  []string{},
		FutureWork:   []string{},
		Methods:      []string{},
		WhatsNew:     []string{},
		OpenProblems: []string{},
		Top5Papers:   []TopPaper{},
	}
}

// ModelErrorDocument is the degenerate document produced when the model
// call failed. Only the paragraphs carry the diagnostic.
func ModelErrorDocument(diagnostic string) SummaryDocument {
	doc := NewSummaryDocument()
	doc.Paragraphs = []string{"Model error: " + diagnostic}
	return doc
}

// Section returns the string list stored under a narrative key, or nil
// for paragraphs, top5_papers and unknown keys.
func (d SummaryDocument) Section(name string) []string {
	switch name {
	case FieldKeyFindings:
		return d.KeyFindings
	case FieldLimitations:
		return d.Limitations
	case FieldFutureWork:
		return d.FutureWork
	case FieldMethods:
		return d.Methods
	case FieldWhatsNew:
		return d.WhatsNew
	case FieldOpenProblems:
		return d.OpenProblems
	}
	return nil
}

// Text joins the paragraphs with a single space.
func (d SummaryDocument) Text() string {
	return strings.Join(d.Paragraphs, " ")
}

// MarshalJSON guarantees that absent fields are still emitted as empty
// arrays.
func (d SummaryDocument) MarshalJSON() ([]byte, error) {
	type plain SummaryDocument
	out := plain(d)
	orEmpty := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	out.Paragraphs = orEmpty(out.Paragraphs)
	out.KeyFindings = orEmpty(out.KeyFindings)
	out.Limitations = orEmpty(out.Limitations)
	out.FutureWork = orEmpty(out.FutureWork)
	out.Methods = orEmpty(out.Methods)
	out.WhatsNew = orEmpty(out.WhatsNew)
	out.OpenProblems = orEmpty(out.OpenProblems)
	if out.Top5Papers == nil {
		out.Top5Papers = []TopPaper{}
	}
	return json.Marshal(out)
}

// EvaluationScore is the quality signal of a summary against its papers.
// All values lie in [0,1] and are rounded to three decimals.
type EvaluationScore struct {
	Coverage  float64 `json:"coverage" yaml:"coverage"`
	Depth     float64 `json:"depth" yaml:"depth"`
	Structure float64 `json:"structure" yaml:"structure"`
	Overall   float64 `json:"overall" yaml:"overall"`
}
