// Package search builds region-scoped keyword queries and filters the results
// down to the blog platforms the pipeline can ingest.
package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/localmark/content-crawler/internal/content"
)

// Config controls query construction and result filtering.
type Config struct {
	// Region is forced into every query so results stay local.
	Region string
	// AllowedHosts drives both the site: clause and the result filter.
	AllowedHosts []string
	Limit        int
}

// Collector turns a keyword into a filtered, deduplicated URL list.
type Collector struct {
	cfg      Config
	searcher content.Searcher
	hosts    *content.HostAllowlist
	logger   *zap.Logger
}

// New builds a Collector.
func New(cfg Config, searcher content.Searcher, logger *zap.Logger) (*Collector, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg.Region == "" {
		cfg.Region = "강릉"
	}
	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = []string{"blog.naver.com", "m.blog.naver.com", "*.tistory.com"}
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 40
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		cfg:      cfg,
		searcher: searcher,
		hosts:    content.NewHostAllowlist(cfg.AllowedHosts),
		logger:   logger,
	}, nil
}

// BuildQuery composes the search query. The region keyword is prepended when
// the user left it out, store mode asks for reviews of one business, and the
// default mode casts a wide net for recommendation posts. The site: clause
// keeps the search engine on the allowed platforms.
func (c *Collector) BuildQuery(keyword string, mode content.CollectionMode) string {
	regionKeyword := keyword
	if !strings.Contains(keyword, c.cfg.Region) {
		regionKeyword = c.cfg.Region + " " + keyword
	}
	if mode == content.ModeStore {
		return regionKeyword + " 후기 " + c.siteClause()
	}
	return regionKeyword + " 추천 리뷰 " + c.siteClause()
}

// Collect searches for the keyword and returns allowed URLs, deduplicated and
// in result order. No results is not an error.
func (c *Collector) Collect(ctx context.Context, keyword string, mode content.CollectionMode) ([]string, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("keyword is required")
	}
	query := c.BuildQuery(keyword, mode)
	urls, err := c.searcher.Search(ctx, query, c.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	filtered := c.hosts.FilterURLs(urls)
	c.logger.Info("search collected urls",
		zap.String("query", query),
		zap.Int("raw", len(urls)),
		zap.Int("kept", len(filtered)),
	)
	return filtered, nil
}

// siteClause renders "(site:a OR site:b)" from the allowed hosts. Wildcard
// markers are stripped and subdomains of another allowed host are skipped,
// since search engines match subdomains on their own.
func (c *Collector) siteClause() string {
	bases := make([]string, 0, len(c.cfg.AllowedHosts))
	for _, host := range c.cfg.AllowedHosts {
		host = strings.TrimPrefix(strings.TrimPrefix(host, "*."), ".")
		if host != "" {
			bases = append(bases, host)
		}
	}
	sites := make([]string, 0, len(bases))
	for _, host := range bases {
		subdomain := false
		for _, other := range bases {
			if host != other && strings.HasSuffix(host, "."+other) {
				subdomain = true
				break
			}
		}
		if !subdomain {
			sites = append(sites, "site:"+host)
		}
	}
	if len(sites) == 0 {
		return ""
	}
	return "(" + strings.Join(sites, " OR ") + ")"
}
