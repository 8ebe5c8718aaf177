// Package report renders a summarize result for humans and downstream tools.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.yaml.in/yaml/v3"

	"github.com/helixir/review-synthesis-service/internal/domain"
)

// Format is a report output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}

// ParseFormat resolves a format name. "md" and "yml" are accepted as
// aliases; the empty string means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, name)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render renders result in the given format.
func Render(result *domain.SummarizeResult, format Format) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: nil result", domain.ErrInvalidInput)
	}
	switch format {
	case FormatJSON:
		return JSON(result)
	case FormatYAML:
		return YAML(result)
	case FormatMarkdown:
		return []byte(Markdown(result)), nil
	case FormatHTML:
		return HTML(result)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
}

// JSON renders the result as indented JSON.
func JSON(result *domain.SummarizeResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML renders the result as YAML.
func YAML(result *domain.SummarizeResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(withEmptyLists(result)); err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// HTML renders the Markdown report to a standalone HTML page.
func HTML(result *domain.SummarizeResult) ([]byte, error) {
	var body bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(Markdown(result)), &body); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>")
	out.WriteString(html.EscapeString(title(result)))
	out.WriteString("</title>")
	out.WriteString("<style>body{font-family:sans-serif;max-width:860px;margin:2rem auto;line-height:1.5}" +
		"table{border-collapse:collapse}th,td{border:1px solid #ccc;padding:0.3rem 0.6rem}</style>")
	out.WriteString("</head><body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body></html>\n")
	return out.Bytes(), nil
}

// withEmptyLists returns a copy whose nil sequences are empty, so every
// summary field is emitted as a list.
func withEmptyLists(result *domain.SummarizeResult) *domain.SummarizeResult {
	out := *result
	doc := domain.NewSummaryDocument()
	for _, pair := range []struct {
		dst *[]string
		src []string
	}{
		{&doc.Paragraphs, out.Summary.Paragraphs},
		{&doc.KeyFindings, out.Summary.KeyFindings},
		{&doc.Limitations, out.Summary.Limitations},
		{&doc.FutureWork, out.Summary.FutureWork},
		{&doc.Methods, out.Summary.Methods},
		{&doc.WhatsNew, out.Summary.WhatsNew},
		{&doc.OpenProblems, out.Summary.OpenProblems},
	} {
		if pair.src != nil {
			*pair.dst = pair.src
		}
	}
	if out.Summary.Top5Papers != nil {
		doc.Top5Papers = out.Summary.Top5Papers
	}
	out.Summary = doc
	if out.Papers == nil {
		out.Papers = []domain.Paper{}
	}
	return &out
}
