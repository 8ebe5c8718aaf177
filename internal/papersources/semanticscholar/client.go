package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default base URL for the Semantic Scholar Graph API.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit matches the shared unauthenticated pool.
	DefaultRateLimit = 1.0

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is used when a search does not set MaxResults.
	DefaultMaxResults = 5

	// maxLimit is the largest page the search endpoint accepts.
	maxLimit = 100

	apiKeyHeader = "x-api-key"

	paperFields = "paperId,title,abstract,year,url,authors,fieldsOfStudy,openAccessPdf,externalIds,publicationDate"

	sourceName = "Semantic Scholar"

	maxResponseSize = 10 << 20
)

// Config holds configuration for the Semantic Scholar client.
type Config struct {
	// APIKey is optional; keyed requests get a private rate limit.
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	MaxResults int
	Enabled    bool
}

// Client implements papersources.PaperSource for Semantic Scholar.
type Client struct {
	httpClient *papersources.HTTPClient
	config     Config
}

var _ papersources.PaperSource = (*Client)(nil)

// NewClient creates a Semantic Scholar client. A nil httpClient gets one
// built from cfg.
func NewClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}

	if httpClient == nil {
		httpClient = papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:      cfg.Timeout,
			RateLimit:    cfg.RateLimit,
			APIKey:       cfg.APIKey,
			APIKeyHeader: apiKeyHeader,
		})
	}

	return &Client{httpClient: httpClient, config: cfg}
}

// Search queries the relevance-ranked paper search endpoint.
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

	if err := c.handleErrorResponse(resp); err != nil {
		return nil, err
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	papers := make([]domain.RawPaper, 0, len(searchResp.Data))
	for _, result := range searchResp.Data {
		papers = append(papers, toRawPaper(result))
	}

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   searchResp.Total,
		Source:         domain.SourceTypeSemanticScholar,
		SearchDuration: time.Since(start),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeSemanticScholar
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
	searchURL, err := url.Parse(c.config.BaseURL + "/paper/search")
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	limit := params.MaxResults
	if limit <= 0 {
		limit = c.config.MaxResults
	}
	limit = min(limit, maxLimit)

	q := url.Values{}
	q.Set("query", params.Query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", paperFields)
	searchURL.RawQuery = q.Encode()
	return searchURL.String(), nil
}

// handleErrorResponse turns a non-2xx response into an ExternalAPIError,
// preferring the API's own error message.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body := papersources.ReadErrorBody(resp)
	message := body

	var errResp ErrorResponse
	if err := json.Unmarshal([]byte(body), &errResp); err == nil {
		if errResp.Error != "" {
			message = errResp.Error
		} else if errResp.Message != "" {
			message = errResp.Message
		}
	}
	return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, nil)
}

// toRawPaper maps a search hit. The Semantic Scholar page is the paper URL;
// the arXiv abstract page is used when the API omits it.
func toRawPaper(result PaperResult) domain.RawPaper {
	names := make([]string, 0, len(result.Authors))
	for _, a := range result.Authors {
		names = append(names, a.Name)
	}

	paper := domain.RawPaper{
		Title:    result.Title,
		Authors:  domain.AuthorList(names...),
		URL:      result.URL,
		Source:   string(domain.SourceTypeSemanticScholar),
		Keywords: result.FieldsOfStudy,
	}
	if result.Abstract != nil {
		paper.Abstract = *result.Abstract
	}
	if result.Year != nil {
		paper.Year = strconv.Itoa(*result.Year)
	}
	if paper.URL == "" && result.ExternalIDs != nil && result.ExternalIDs.ArXiv != "" {
		paper.URL = "https://arxiv.org/abs/" + result.ExternalIDs.ArXiv
	}
	return paper
}
