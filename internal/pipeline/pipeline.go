// Package pipeline orchestrates one URL's trip from normalization through
// scrape, extraction, and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/localmark/content-crawler/internal/content"
	"github.com/localmark/content-crawler/internal/metrics"
)

// Config controls pipeline behavior.
type Config struct {
	// MinContentChars gates extraction: pages with fewer readable characters
	// are treated as empty rather than sent to the model.
	MinContentChars int
	// BatchDelay is the politeness pause between batch items.
	BatchDelay time.Duration
	// EventTopic, when set with a Publisher, receives one event per ingest.
	EventTopic string
	// ArchiveContentType is stamped on archived raw pages.
	ArchiveContentType string
}

// Request identifies one URL to ingest and how to tag the results.
type Request struct {
	URL            string
	Keyword        string
	GroupName      string
	CollectionMode content.CollectionMode
	StoreID        string
}

// Result is the terminal outcome of one ingest.
type Result struct {
	Status    content.IngestStatus
	Count     int
	Items     []content.ContentRecord
	SourceURL string // normalized form actually fetched
}

// Pipeline wires the ingestion stages together. Blobs and publisher are
// optional; a nil value disables archival or eventing.
type Pipeline struct {
	cfg       Config
	scraper   content.Scraper
	extractor content.Extractor
	store     content.Store
	blobs     content.BlobStore
	publisher content.Publisher
	clock     content.Clock
	ids       content.IDGenerator
	logger    *zap.Logger
}

// Options carries the pipeline's collaborators.
type Options struct {
	Scraper   content.Scraper
	Extractor content.Extractor
	Store     content.Store
	Blobs     content.BlobStore
	Publisher content.Publisher
	Clock     content.Clock
	IDs       content.IDGenerator
	Logger    *zap.Logger
}

// New builds a Pipeline.
func New(cfg Config, opts Options) (*Pipeline, error) {
	if opts.Scraper == nil {
		return nil, fmt.Errorf("scraper is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if opts.IDs == nil {
		return nil, fmt.Errorf("id generator is required")
	}
	if cfg.MinContentChars <= 0 {
		cfg.MinContentChars = 50
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = 2 * time.Second
	}
	if cfg.ArchiveContentType == "" {
		cfg.ArchiveContentType = "text/markdown"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		scraper:   opts.Scraper,
		extractor: opts.Extractor,
		store:     opts.Store,
		blobs:     opts.Blobs,
		publisher: opts.Publisher,
		clock:     opts.Clock,
		ids:       opts.IDs,
		logger:    logger,
	}, nil
}

// Run ingests one URL. Duplicate and empty outcomes are successes with zero
// rows; hard failures carry the stage that failed.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	start := p.clock.Now()
	res, err := p.run(ctx, req)
	outcome := string(res.Status)
	if err != nil {
		outcome = "error"
	}
	metrics.ObservePipeline(req.URL, outcome, p.clock.Now().Sub(start))
	return res, err
}

func (p *Pipeline) run(ctx context.Context, req Request) (Result, error) {
	if req.URL == "" {
		return Result{}, fmt.Errorf("url is required")
	}
	mode := req.CollectionMode
	if mode == "" {
		mode = content.ModeNet
	}
	if !mode.Valid() {
		return Result{}, fmt.Errorf("unknown collection mode %q", req.CollectionMode)
	}

	normalized := content.NormalizeURL(req.URL)
	res := Result{SourceURL: normalized}

	// Targeted store crawls always refresh; only untargeted collection is
	// guarded against re-ingesting a URL.
	if req.StoreID == "" {
		found, err := p.store.FindBySourceURL(ctx, req.URL, normalized)
		if err != nil {
			return res, content.NewPersistError(fmt.Errorf("duplicate check: %w", err))
		}
		if found {
			res.Status = content.StatusDuplicate
			return res, nil
		}
	}

	markdown, err := p.scraper.Scrape(ctx, normalized)
	if err != nil {
		return res, err
	}
	if len([]rune(markdown)) < p.cfg.MinContentChars {
		p.logger.Info("page below content threshold",
			zap.String("url", normalized),
			zap.Int("chars", len([]rune(markdown))),
		)
		res.Status = content.StatusEmpty
		return res, nil
	}

	items, err := p.extractor.Extract(ctx, markdown, req.Keyword)
	if err != nil {
		return res, err
	}
	if len(items) == 0 {
		res.Status = content.StatusEmpty
		return res, nil
	}

	records, err := p.toRecords(items, req, normalized, mode)
	if err != nil {
		return res, content.NewPersistError(err)
	}
	if err := p.store.InsertContent(ctx, records); err != nil {
		if errors.Is(err, content.ErrDuplicate) {
			res.Status = content.StatusDuplicate
			return res, nil
		}
		return res, content.NewPersistError(err)
	}
	metrics.ObserveRowsInserted(len(records))

	if req.StoreID != "" {
		if err := p.store.UpdateStoreInfo(ctx, req.StoreID, records[0].Content); err != nil {
			p.logger.Warn("store info sync failed",
				zap.String("store_id", req.StoreID),
				zap.Error(err),
			)
		} else {
			metrics.ObserveStoreSync()
		}
	}

	blobURI := p.archive(ctx, records[0].ID, markdown)
	p.publish(ctx, req, records, normalized, blobURI)

	res.Status = content.StatusIngested
	res.Count = len(records)
	res.Items = records
	return res, nil
}

// toRecords maps extracted items onto content rows. Rows after the first get
// a fragment suffix so the source_url unique index still admits multi-place
// roundup posts.
func (p *Pipeline) toRecords(items []content.ExtractedItem, req Request, normalized string, mode content.CollectionMode) ([]content.ContentRecord, error) {
	now := p.clock.Now()
	var group *string
	if req.GroupName != "" {
		group = &req.GroupName
	}
	records := make([]content.ContentRecord, 0, len(items))
	for i, item := range items {
		id, err := p.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate record id: %w", err)
		}
		sourceURL := normalized
		if i > 0 {
			sourceURL = fmt.Sprintf("%s#%d", normalized, i+1)
		}
		records = append(records, content.ContentRecord{
			ID:             id,
			Title:          item.Title,
			Content:        item.Content,
			Category:       item.Category,
			SourceURL:      sourceURL,
			ImageURL:       item.ImageURL,
			Reason:         item.Reason,
			GroupName:      group,
			CollectionMode: mode,
			CreatedAt:      now,
		})
	}
	return records, nil
}

func (p *Pipeline) archive(ctx context.Context, recordID, markdown string) string {
	if p.blobs == nil {
		return ""
	}
	path := fmt.Sprintf("%s/%s.md", p.clock.Now().Format("2006/01/02"), recordID)
	uri, err := p.blobs.PutObject(ctx, path, p.cfg.ArchiveContentType, []byte(markdown))
	if err != nil {
		p.logger.Warn("archive raw page failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return uri
}

// ingestEvent is the payload published after a successful ingest.
type ingestEvent struct {
	Event          string    `json:"event"`
	SourceURL      string    `json:"source_url"`
	Count          int       `json:"count"`
	CollectionMode string    `json:"collection_mode"`
	GroupName      string    `json:"group_name,omitempty"`
	StoreID        string    `json:"store_id,omitempty"`
	BlobURI        string    `json:"blob_uri,omitempty"`
	IngestedAt     time.Time `json:"ingested_at"`
}

func (p *Pipeline) publish(ctx context.Context, req Request, records []content.ContentRecord, normalized, blobURI string) {
	if p.publisher == nil || p.cfg.EventTopic == "" {
		return
	}
	event := ingestEvent{
		Event:          "content.ingested",
		SourceURL:      normalized,
		Count:          len(records),
		CollectionMode: string(records[0].CollectionMode),
		GroupName:      req.GroupName,
		StoreID:        req.StoreID,
		BlobURI:        blobURI,
		IngestedAt:     p.clock.Now(),
	}
	if _, err := p.publisher.Publish(ctx, p.cfg.EventTopic, event); err != nil {
		p.logger.Warn("publish ingest event failed", zap.Error(err))
	}
}
