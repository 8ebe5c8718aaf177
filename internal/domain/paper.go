package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Sentinel values substituted for missing paper fields.
const (
	UntitledPaper   = "Untitled"
	UnknownAuthors  = "Unknown"
	MissingAbstract = "No abstract available."
	UnknownYear     = "Unknown"
	DefaultSource   = string(SourceTypeArXiv)
)

// AuthorField holds the authors of a raw record, which sources deliver
// either as a single string or as a list of names.
type AuthorField struct {
	// Names is set when the authors arrived as a list.
	Names []string
	// Text is set when the authors arrived as a single string.
	Text string
	// IsList records which of the two shapes was received.
	IsList bool
}

// AuthorList builds an AuthorField from a list of names.
func AuthorList(names ...string) AuthorField {
	return AuthorField{Names: names, IsList: true}
}

// AuthorText builds an AuthorField from a preformatted string.
func AuthorText(s string) AuthorField {
	return AuthorField{Text: s}
}

// UnmarshalJSON accepts a string, a list of strings, or null.
func (a *AuthorField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = AuthorField{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AuthorText(s)
		return nil
	case '[':
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				names = append(names, v)
			case map[string]any:
				// Sources that return author objects carry the name field.
				if name, ok := v["name"].(string); ok {
					names = append(names, name)
				}
			}
		}
		*a = AuthorList(names...)
		return nil
	default:
		return fmt.Errorf("authors must be a string or a list, got %s", string(data))
	}
}

// MarshalJSON emits the field in the shape it was received.
func (a AuthorField) MarshalJSON() ([]byte, error) {
	if a.IsList {
		if a.Names == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Names)
	}
	return json.Marshal(a.Text)
}

// RawPaper is a loosely shaped paper record as returned by a search source.
// Any field may be empty.
type RawPaper struct {
	Title    string      `json:"title"`
	Abstract string      `json:"abstract"`
	Authors  AuthorField `json:"authors"`
	URL      string      `json:"url"`
	Year     string      `json:"year"`
	Source   string      `json:"source"`
	Keywords []string    `json:"keywords,omitempty"`
}

// Paper is a normalized paper record. Title, authors and abstract are
// never empty once built by NormalizePaper.
type Paper struct {
	Title    string   `json:"title" yaml:"title" validate:"required"`
	Authors  string   `json:"authors" yaml:"authors"`
	Abstract string   `json:"abstract" yaml:"abstract"`
	URL      string   `json:"url" yaml:"url"`
	Year     string   `json:"year" yaml:"year"`
	Source   string   `json:"source" yaml:"source"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// NormalizePaper canonicalizes a raw record, substituting the documented
// sentinels for missing fields.
func NormalizePaper(raw RawPaper) Paper {
	title := strings.TrimSpace(raw.Title)
	abstract := strings.TrimSpace(raw.Abstract)

	authors := raw.Authors.Text
	if raw.Authors.IsList {
		names := make([]string, 0, len(raw.Authors.Names))
		for _, n := range raw.Authors.Names {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		authors = strings.Join(names, ", ")
	}

	p := Paper{
		Title:    title,
		Authors:  authors,
		Abstract: abstract,
		URL:      raw.URL,
		Year:     raw.Year,
		Source:   raw.Source,
	}
	if p.Title == "" {
		p.Title = UntitledPaper
	}
	if p.Authors == "" {
		p.Authors = UnknownAuthors
	}
	if p.Abstract == "" {
		p.Abstract = MissingAbstract
	}
	if p.Year == "" {
		p.Year = UnknownYear
	}
	if p.Source == "" {
		p.Source = DefaultSource
	}
	if len(raw.Keywords) > 0 {
		p.Keywords = append([]string(nil), raw.Keywords...)
	}
	return p
}

// NormalizePapers normalizes every record, preserving order.
func NormalizePapers(raws []RawPaper) []Paper {
	out := make([]Paper, 0, len(raws))
	for _, r := range raws {
		out = append(out, NormalizePaper(r))
	}
	return out
}
