package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGETSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/everything", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL+"/v2"), WithHeader("X-Api-Key", "secret"))
	resp, err := c.GET(context.Background(), "/everything", url.Values{"q": {"AAPL"}})
	require.NoError(t, err)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, resp.ParseJSON(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestClientReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.POST(context.Background(), "/predict", map[string]string{"inputs": "x"})
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
}

func TestRedact(t *testing.T) {
	got := redact("https://newsapi.org/v2/everything?q=AAPL&apiKey=abc")
	assert.Contains(t, got, "apiKey=REDACTED")
	assert.NotContains(t, got, "abc")
}
