package facts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fieldsight/internal/config"
)

func newTestServer(t *testing.T, requests *int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`))
	}))
}

func testConfig(url string) config.FactsConfig {
	return config.FactsConfig{
		BaseURL:   url,
		APIKey:    "test-key",
		Model:     "gpt-3.5-turbo",
		MaxTokens: 150,
		CacheTTL:  time.Minute,
	}
}

func TestFunFactFetchesAndCaches(t *testing.T) {
	var requests int
	srv := newTestServer(t, &requests, "Roses are older than humans.")
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	fact, err := c.FunFact(context.Background(), "Rosa")
	require.NoError(t, err)
	assert.Equal(t, "Roses are older than humans.", fact)
	assert.Equal(t, 1, requests)

	// Second lookup for the same class hits the cache, case-insensitively.
	fact, err = c.FunFact(context.Background(), "rosa")
	require.NoError(t, err)
	assert.Equal(t, "Roses are older than humans.", fact)
	assert.Equal(t, 1, requests, "cached lookup must not re-fetch")
}

func TestFunFactErrorsAreNotCached(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	_, err := c.FunFact(context.Background(), "Rosa")
	require.Error(t, err)

	_, err = c.FunFact(context.Background(), "Rosa")
	require.Error(t, err)
	assert.Equal(t, 2, requests, "failures must be retried on next lookup")
}

func TestFunFactRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.FunFact(context.Background(), "Rosa")
	assert.Error(t, err)
}
