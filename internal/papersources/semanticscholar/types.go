// Package semanticscholar searches the Semantic Scholar Graph API.
//
// API Documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

// SearchResponse is the body of /paper/search.
type SearchResponse struct {
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Data   []PaperResult `json:"data"`
}

// PaperResult is one paper of a search response. Any field may be absent.
type PaperResult struct {
	PaperID         string         `json:"paperId"`
	Title           string         `json:"title"`
	Abstract        *string        `json:"abstract"`
	Year            *int           `json:"year"`
	URL             string         `json:"url"`
	Authors         []Author       `json:"authors"`
	FieldsOfStudy   []string       `json:"fieldsOfStudy"`
	OpenAccessPDF   *OpenAccessPDF `json:"openAccessPdf,omitempty"`
	ExternalIDs     *ExternalIDs   `json:"externalIds,omitempty"`
	PublicationDate string         `json:"publicationDate"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	DOI   string `json:"DOI,omitempty"`
	ArXiv string `json:"ArXiv,omitempty"`
}

// Author is a paper author.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// OpenAccessPDF points at a free PDF of the paper.
type OpenAccessPDF struct {
	URL string `json:"url,omitempty"`
}

// ErrorResponse is the error body returned by the API.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
