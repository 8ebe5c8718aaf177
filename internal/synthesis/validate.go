package synthesis

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/observability"
)

// ParseStatus tags the result of the parse stage.
type ParseStatus int

const (
	// ParseMalformed means no JSON object could be extracted.
	ParseMalformed ParseStatus = iota
	// ParseValid means the whole reply was a JSON object.
	ParseValid
	// ParseRecovered means a JSON object was found embedded in other text.
	ParseRecovered
)

// String returns the metric label for the status.
func (s ParseStatus) String() string {
	switch s {
	case ParseValid:
		return observability.ValidationValid
	case ParseRecovered:
		return observability.ValidationRecovered
	default:
		return observability.ValidationMalformed
	}
}

// ParseResult is the tagged output of ParseResponse. Fields is nil when the
// status is ParseMalformed.
type ParseResult struct {
	Status ParseStatus
	Fields map[string]json.RawMessage
}

// OK reports whether a mapping was extracted.
func (r ParseResult) OK() bool {
	return r.Status != ParseMalformed
}

// ParseResponse extracts a JSON object from arbitrary model text. It tries,
// in order: the whole text with any markdown fence removed, the span from
// the first '{' to the last '}', and the first balanced object. JSON values
// that are not objects do not count.
func ParseResponse(text string) ParseResult {
	if fields, ok := decodeObject(stripCodeFences(text)); ok {
		return ParseResult{Status: ParseValid, Fields: fields}
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		if fields, ok := decodeObject(text[start : end+1]); ok {
			return ParseResult{Status: ParseRecovered, Fields: fields}
		}
	}

	if fields, ok := firstBalancedObject(text); ok {
		return ParseResult{Status: ParseRecovered, Fields: fields}
	}

	return ParseResult{Status: ParseMalformed}
}

// Coerce maps a parsed object onto a fully populated SummaryDocument.
// A key whose value is a JSON array is kept; any other value, or a missing
// key, gets the field default. A nil mapping yields the all-default document.
func Coerce(fields map[string]json.RawMessage) domain.SummaryDocument {
	doc := domain.NewSummaryDocument()

	doc.Paragraphs = coerceStrings(fields[domain.FieldParagraphs], []string{domain.UnavailableParagraph})
	doc.KeyFindings = coerceStrings(fields[domain.FieldKeyFindings], []string{})
	doc.Limitations = coerceStrings(fields[domain.FieldLimitations], []string{})
	doc.FutureWork = coerceStrings(fields[domain.FieldFutureWork], []string{})
	doc.Methods = coerceStrings(fields[domain.FieldMethods], []string{})
	doc.WhatsNew = coerceStrings(fields[domain.FieldWhatsNew], []string{})
	doc.OpenProblems = coerceStrings(fields[domain.FieldOpenProblems], []string{})
	doc.Top5Papers = coerceTopPapers(fields[domain.FieldTop5Papers])

	return doc
}

// Validate turns an invocation outcome into a document. A failure outcome
// short-circuits to the model error document.
func Validate(outcome Outcome) domain.SummaryDocument {
	doc, _ := ValidateWithStatus(outcome)
	return doc
}

// ValidateWithStatus is Validate that also returns the validation outcome
// label (see the observability Validation* constants).
func ValidateWithStatus(outcome Outcome) (domain.SummaryDocument, string) {
	if outcome.Failed {
		return domain.ModelErrorDocument(outcome.Diagnostic), observability.ValidationModelError
	}
	parsed := ParseResponse(outcome.Text)
	return Coerce(parsed.Fields), parsed.Status.String()
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func decodeObject(s string) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, false
	}
	// "null" decodes without error into a nil map.
	if fields == nil {
		return nil, false
	}
	return fields, true
}

// firstBalancedObject scans every '{' in order and decodes the first span
// whose braces balance, ignoring braces inside JSON strings.
func firstBalancedObject(text string) (map[string]json.RawMessage, bool) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchingBrace(text, start); end > start {
			if fields, ok := decodeObject(text[start : end+1]); ok {
				return fields, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

// matchingBrace returns the index of the '}' closing the '{' at start, or
// -1 when the text ends first.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func coerceStrings(raw json.RawMessage, fallback []string) []string {
	if !isArray(raw) {
		return fallback
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return fallback
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := scalarText(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func coerceTopPapers(raw json.RawMessage) []domain.TopPaper {
	if !isArray(raw) {
		return []domain.TopPaper{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []domain.TopPaper{}
	}
	out := make([]domain.TopPaper, 0, len(items))
	for _, item := range items {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(trimmed, &obj); err != nil {
				continue
			}
			title, _ := scalarText(obj["title"])
			url, _ := scalarText(obj["url"])
			out = append(out, domain.TopPaper{Title: title, URL: url})
			continue
		}
		if title, ok := scalarText(item); ok {
			out = append(out, domain.TopPaper{Title: title})
		}
	}
	return out
}

// scalarText renders one array element as a string. Strings are unquoted,
// null and missing values are dropped, anything else keeps its compact JSON
// text.
func scalarText(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed), true
	}
	return buf.String(), true
}
