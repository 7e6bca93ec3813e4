package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		APIKey:            "fc-test",
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000, // no throttling in tests
	}, nil)
	require.NoError(t, err)
	return c
}

func TestScrape_NestedDataShape(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/scrape", r.URL.Path)
		require.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "https://m.blog.naver.com/abc/1", req["url"])

		_, _ = w.Write([]byte(`{"success":true,"data":{"markdown":"# hello"}}`))
	})

	md, err := c.Scrape(context.Background(), "https://m.blog.naver.com/abc/1")
	require.NoError(t, err)
	require.Equal(t, "# hello", md)
}

func TestScrape_FlatShape(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"markdown":"flat body"}`))
	})

	md, err := c.Scrape(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "flat body", md)
}

func TestScrape_NoMarkdownIsFetchError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"page blocked"}`))
	})

	_, err := c.Scrape(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Equal(t, content.StageFetch, content.StageOf(err))
	require.Contains(t, err.Error(), "page blocked")
}

func TestScrape_HTTPErrorPropagatesBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient credits"}`))
	})

	_, err := c.Scrape(context.Background(), "https://example.com")
	require.Error(t, err)
	require.Equal(t, content.StageFetch, content.StageOf(err))
	require.Contains(t, err.Error(), "402")
	require.Contains(t, err.Error(), "insufficient credits")
}

func TestSearch_DataShape(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/search", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":[{"url":"https://blog.naver.com/a/1"},{"url":"https://b.tistory.com/2"}]}`))
	})

	urls, err := c.Search(context.Background(), "강릉 맛집", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"https://blog.naver.com/a/1", "https://b.tistory.com/2"}, urls)
}

func TestSearch_WebShapeFallback(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"web":[{"url":"https://blog.naver.com/a/1"}]}`))
	})

	urls, err := c.Search(context.Background(), "강릉 카페", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"https://blog.naver.com/a/1"}, urls)
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil)
	require.Error(t, err)
}
