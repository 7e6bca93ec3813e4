// Package firecrawl implements content.Scraper and content.Searcher against
// the Firecrawl API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/metrics"
)

const (
	scrapePath = "/v1/scrape"
	searchPath = "/v1/search"
)

// Config controls the Firecrawl client.
type Config struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client is a thin, rate-limited wrapper over the Firecrawl scrape and
// search endpoints. Every call costs quota, so the pipeline's duplicate
// guard must run before this client is touched.
type Client struct {
	cfg     Config
	httpc   *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("firecrawl api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.firecrawl.dev"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 0.5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger,
	}, nil
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

// scrapeResponse tolerates both known response shapes: the markdown may
// arrive nested under "data" or at the top level depending on API version.
type scrapeResponse struct {
	Success  bool   `json:"success"`
	Markdown string `json:"markdown"`
	Data     struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
	Error string `json:"error"`
}

// Scrape fetches the markdown rendering of a page.
func (c *Client) Scrape(ctx context.Context, url string) (string, error) {
	start := time.Now()
	var resp scrapeResponse
	err := c.post(ctx, scrapePath, scrapeRequest{URL: url, Formats: []string{"markdown"}}, &resp)
	metrics.ObserveScrape("firecrawl", time.Since(start))
	if err != nil {
		return "", content.NewFetchError(err)
	}

	markdown := resp.Data.Markdown
	if markdown == "" {
		markdown = resp.Markdown
	}
	if markdown == "" {
		if resp.Error != "" {
			return "", content.NewFetchError(fmt.Errorf("firecrawl scrape: %s", resp.Error))
		}
		return "", content.NewFetchError(fmt.Errorf("firecrawl scrape returned no markdown for %s", url))
	}
	c.logger.Debug("scrape succeeded",
		zap.String("url", url),
		zap.Int("chars", len(markdown)),
	)
	return markdown, nil
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResult struct {
	URL string `json:"url"`
}

// searchResponse tolerates results under "data" or "web".
type searchResponse struct {
	Success bool           `json:"success"`
	Data    []searchResult `json:"data"`
	Web     []searchResult `json:"web"`
	Error   string         `json:"error"`
}

// Search returns candidate URLs for a keyword query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 40
	}
	var resp searchResponse
	if err := c.post(ctx, searchPath, searchRequest{Query: query, Limit: limit}, &resp); err != nil {
		return nil, content.NewFetchError(err)
	}
	results := resp.Data
	if len(results) == 0 {
		results = resp.Web
	}
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("firecrawl request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("firecrawl %s returned %d: %s", path, resp.StatusCode, string(snippet))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
