package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit stays within the polite pool limit.
	DefaultRateLimit = 10.0

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is used when a search does not set MaxResults.
	DefaultMaxResults = 5

	// maxPerPage is the largest page OpenAlex serves.
	maxPerPage = 200

	// minConceptScore drops weakly tagged concepts from the keyword list.
	minConceptScore = 0.3

	// maxAbstractWords guards against oversized inverted indexes.
	maxAbstractWords = 100_000

	selectFields = "id,doi,title,display_name,publication_year,authorships,primary_location,concepts,abstract_inverted_index"

	sourceName = "OpenAlex"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	BaseURL string
	// Email joins the polite pool; see
	// https://docs.openalex.org/how-to-use-the-api/rate-limits-and-authentication
	Email string
	// APIKey is sent as the api_key parameter for premium access.
	APIKey     string
	Timeout    time.Duration
	RateLimit  float64
	MaxResults int
	Enabled    bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.MaxResults == 0 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements papersources.PaperSource for OpenAlex.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a new OpenAlex client.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	userAgent := papersources.DefaultUserAgent
	if cfg.Email != "" {
		userAgent += " (mailto:" + cfg.Email + ")"
	}
	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		UserAgent: userAgent,
	}))
}

// NewWithHTTPClient creates a client that sends requests through httpClient.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()
	return &Client{config: cfg, httpClient: httpClient}
}

// Search runs a relevance-ranked full-text search over works.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	start := time.Now()

	searchURL, err := c.buildSearchURL(params)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalAPIError(sourceName, resp.StatusCode, papersources.ReadErrorBody(resp), nil)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]domain.RawPaper, 0, len(searchResp.Results))
	for i := range searchResp.Results {
		papers = append(papers, workToRawPaper(&searchResp.Results[i]))
	}

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Meta.Count,
		Source:         domain.SourceTypeOpenAlex,
		SearchDuration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeOpenAlex
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) buildSearchURL(params papersources.SearchParams) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/works"

	perPage := params.MaxResults
	if perPage <= 0 {
		perPage = c.config.MaxResults
	}
	perPage = min(perPage, maxPerPage)

	query := url.Values{}
	query.Set("search", params.Query)
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("select", selectFields)
	if c.config.Email != "" {
		query.Set("mailto", c.config.Email)
	}
	if c.config.APIKey != "" {
		query.Set("api_key", c.config.APIKey)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// workToRawPaper maps a work. The landing page is preferred as the paper
// URL, then the DOI, then the OpenAlex id.
func workToRawPaper(work *Work) domain.RawPaper {
	title := work.Title
	if title == "" {
		title = work.DisplayName
	}

	names := make([]string, 0, len(work.Authorships))
	for _, a := range work.Authorships {
		names = append(names, a.Author.DisplayName)
	}

	paperURL := work.ID
	if work.DOI != "" {
		paperURL = work.DOI
	}
	if work.PrimaryLocation != nil && work.PrimaryLocation.LandingPageURL != "" {
		paperURL = work.PrimaryLocation.LandingPageURL
	}

	year := ""
	if work.PublicationYear > 0 {
		year = strconv.Itoa(work.PublicationYear)
	}

	var keywords []string
	for _, concept := range work.Concepts {
		if concept.Score >= minConceptScore && concept.DisplayName != "" {
			keywords = append(keywords, concept.DisplayName)
		}
	}

	return domain.RawPaper{
		Title:    title,
		Abstract: reconstructAbstract(work.AbstractInvertedIndex),
		Authors:  domain.AuthorList(names...),
		URL:      paperURL,
		Year:     year,
		Source:   string(domain.SourceTypeOpenAlex),
		Keywords: keywords,
	}
}

// reconstructAbstract rebuilds abstract text from OpenAlex's inverted index
// by placing every word at each of its positions.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}

	total := 0
	for _, positions := range invertedIndex {
		total += len(positions)
	}
	if total > maxAbstractWords {
		return ""
	}

	pairs := make([]posWord, 0, total)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos == pairs[j].pos {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
