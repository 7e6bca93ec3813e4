// Package direct implements content.Scraper with a plain HTTP fetch, for
// deployments without a Firecrawl key. It yields the page's readable text
// rather than true markdown, which is good enough for the extraction prompt
// but loses image URLs on script-heavy blogs.
package direct

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher fetches a page with Colly and reduces it to readable text.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	return &Fetcher{cfg: cfg, baseCollector: c}
}

var contentSelectors = []string{
	"main",
	"article",
	".se-main-container", // naver smarteditor body
	"#content",
	".content",
}

// Scrape fetches the URL and returns the page's main text content.
func (f *Fetcher) Scrape(ctx context.Context, url string) (string, error) {
	start := time.Now()
	body, err := f.fetch(ctx, url)
	metrics.ObserveScrape("direct", time.Since(start))
	if err != nil {
		return "", content.NewFetchError(err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", content.NewFetchError(fmt.Errorf("parse html: %w", err))
	}
	return extractMainText(doc), nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit failed: %w", err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("response failed: %w", fetchErr)
		}
		return body, nil
	}
}

func extractMainText(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			if text := collapseWhitespace(sel.Text()); text != "" {
				return text
			}
		}
	}
	return collapseWhitespace(doc.Find("body").Text())
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
