package papersources

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastClient returns a client that does not slow tests down.
func fastClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1000
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 100
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	return NewHTTPClient(cfg)
}

func get(t *testing.T, client *HTTPClient, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return client.Do(req)
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	client := NewHTTPClient(HTTPClientConfig{})

	assert.Equal(t, 30*time.Second, client.client.Timeout)
	assert.Equal(t, DefaultUserAgent, client.config.UserAgent)
	assert.Equal(t, 2, client.config.MaxRetries)
	assert.Equal(t, time.Second, client.config.RetryDelay)
	assert.Equal(t, 10.0, client.config.RateLimit)
	assert.Equal(t, 1, client.config.BurstSize)
}

func TestHTTPClient_Do_Headers(t *testing.T) {
	t.Run("sets User-Agent and API key", func(t *testing.T) {
		var userAgent, apiKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent = r.Header.Get("User-Agent")
			apiKey = r.Header.Get("x-api-key")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := fastClient(HTTPClientConfig{UserAgent: "TestAgent/2.0", APIKey: "s2-key", APIKeyHeader: "x-api-key"})
		resp, err := get(t, client, server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "TestAgent/2.0", userAgent)
		assert.Equal(t, "s2-key", apiKey)
	})

	t.Run("keeps a caller supplied User-Agent", func(t *testing.T) {
		var userAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent = r.Header.Get("User-Agent")
		}))
		defer server.Close()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "Custom/3.0")

		resp, err := fastClient(HTTPClientConfig{}).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "Custom/3.0", userAgent)
	})
}

func TestHTTPClient_Do_Retries(t *testing.T) {
	t.Run("retries 429 then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		resp, err := get(t, fastClient(HTTPClientConfig{}), server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "ok", string(body))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("gives up after max retries on 5xx", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := get(t, fastClient(HTTPClientConfig{MaxRetries: 2}), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exhausted after 3 attempts")
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry 4xx", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		resp, err := get(t, fastClient(HTTPClientConfig{}), server.URL)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("resends the body", func(t *testing.T) {
		var bodies []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			if len(bodies) == 1 {
				w.WriteHeader(http.StatusBadGateway)
			}
		}))
		defer server.Close()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, bytes.NewReader([]byte(`{"q":1}`)))
		require.NoError(t, err)

		resp, err := fastClient(HTTPClientConfig{}).Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, []string{`{"q":1}`, `{"q":1}`}, bodies)
	})
}

func TestHTTPClient_Do_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = fastClient(HTTPClientConfig{}).Do(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClient_retryDelay(t *testing.T) {
	client := NewHTTPClient(HTTPClientConfig{RetryDelay: 250 * time.Millisecond})

	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"no header", "", 250 * time.Millisecond},
		{"seconds", "3", 3 * time.Second},
		{"zero seconds", "0", 250 * time.Millisecond},
		{"garbage", "soon", 250 * time.Millisecond},
		{"date in the past", time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat), 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.want, client.retryDelay(resp))
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	assert.True(t, retryableStatus(http.StatusTooManyRequests))
	assert.True(t, retryableStatus(http.StatusInternalServerError))
	assert.True(t, retryableStatus(http.StatusGatewayTimeout))
	assert.False(t, retryableStatus(http.StatusOK))
	assert.False(t, retryableStatus(http.StatusNotFound))
}
