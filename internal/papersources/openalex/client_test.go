package openalex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/papersources"
)

const worksBody = `{
  "meta": {"count": 812, "per_page": 2},
  "results": [
    {
      "id": "https://openalex.org/W2741809807",
      "doi": "https://doi.org/10.1000/xyz",
      "title": "Deep Residual Learning",
      "publication_year": 2016,
      "authorships": [
        {"author": {"id": "A1", "display_name": "Kaiming He"}},
        {"author": {"id": "A2", "display_name": "Xiangyu Zhang"}}
      ],
      "primary_location": {"landing_page_url": "https://ieeexplore.ieee.org/document/7780459"},
      "concepts": [
        {"display_name": "Residual neural network", "score": 0.9},
        {"display_name": "Physics", "score": 0.05}
      ],
      "abstract_inverted_index": {"Deeper": [0], "networks": [2], "neural": [1], "are": [3], "harder": [4]}
    },
    {
      "id": "https://openalex.org/W1",
      "doi": "",
      "title": null,
      "display_name": "Fallback Title",
      "publication_year": 0,
      "authorships": [],
      "primary_location": null,
      "abstract_inverted_index": null
    }
  ]
}`

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	cfg.Enabled = true
	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{RateLimit: 1000, BurstSize: 10, MaxRetries: 1})
	return NewWithHTTPClient(cfg, httpClient)
}

func TestClient_Search(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, Config{Email: "ops@example.org", APIKey: "oa-key"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(worksBody))
	})

	result, err := client.Search(context.Background(), papersources.SearchParams{Query: "residual learning", MaxResults: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"residual learning"}, gotQuery["search"])
	assert.Equal(t, []string{"2"}, gotQuery["per_page"])
	assert.Equal(t, []string{"ops@example.org"}, gotQuery["mailto"])
	assert.Equal(t, []string{"oa-key"}, gotQuery["api_key"])

	assert.Equal(t, domain.SourceTypeOpenAlex, result.Source)
	assert.Equal(t, 812, result.TotalResults)
	require.Len(t, result.Papers, 2)

	first := result.Papers[0]
	assert.Equal(t, "Deep Residual Learning", first.Title)
	assert.Equal(t, "Deeper neural networks are harder", first.Abstract)
	assert.Equal(t, domain.AuthorList("Kaiming He", "Xiangyu Zhang"), first.Authors)
	assert.Equal(t, "https://ieeexplore.ieee.org/document/7780459", first.URL)
	assert.Equal(t, "2016", first.Year)
	assert.Equal(t, []string{"Residual neural network"}, first.Keywords)

	second := result.Papers[1]
	assert.Equal(t, "Fallback Title", second.Title)
	assert.Empty(t, second.Abstract)
	assert.Empty(t, second.Year)
	assert.Equal(t, "https://openalex.org/W1", second.URL)
}

func TestClient_Search_HTTPError(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Search(context.Background(), papersources.SearchParams{Query: "x"})

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil", nil, ""},
		{"ordered by position", map[string][]int{"world": {1}, "hello": {0}}, "hello world"},
		{"repeated word", map[string][]int{"the": {0, 2}, "cat": {1}, "hat": {3}}, "the cat the hat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconstructAbstract(tt.index))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	client := New(Config{})
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultMaxResults, client.config.MaxResults)
	assert.Equal(t, "OpenAlex", client.Name())
	assert.False(t, client.IsEnabled())
}
