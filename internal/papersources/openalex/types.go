// Package openalex searches the OpenAlex works API.
//
// API Documentation: https://docs.openalex.org/
package openalex

// SearchResponse is the body of /works?search=.
type SearchResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta carries result counts.
type Meta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
}

// Work is one scholarly work.
type Work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	Title           string       `json:"title"`
	DisplayName     string       `json:"display_name"`
	PublicationYear int          `json:"publication_year"`
	Authorships     []Authorship `json:"authorships"`
	PrimaryLocation *Location    `json:"primary_location"`
	Concepts        []Concept    `json:"concepts"`

	// AbstractInvertedIndex maps each word of the abstract to its positions.
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// Authorship links a work to one author.
type Authorship struct {
	Author AuthorInfo `json:"author"`
}

// AuthorInfo is the author of an authorship.
type AuthorInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Location is where a work is hosted.
type Location struct {
	LandingPageURL string `json:"landing_page_url"`
}

// Concept is a tagged research concept with its relevance score.
type Concept struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}
