package content

import (
	"context"
	"time"
)

// Scraper retrieves the readable markdown rendering of a page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// Searcher turns a keyword query into candidate URLs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Extractor turns page text into structured items via a language model.
type Extractor interface {
	Extract(ctx context.Context, pageText string, target string) ([]ExtractedItem, error)
}

// Store persists content rows and store records.
type Store interface {
	// FindBySourceURL reports whether any content row matches either URL form.
	FindBySourceURL(ctx context.Context, originalURL, normalizedURL string) (bool, error)
	InsertContent(ctx context.Context, records []ContentRecord) error
	ListContent(ctx context.Context, limit int) ([]ContentRecord, error)
	DeleteContent(ctx context.Context, ids []string) error
	UpsertStore(ctx context.Context, store StoreRecord) error
	GetStore(ctx context.Context, storeID string) (StoreRecord, error)
	// UpdateStoreInfo overwrites the store's live-news text; latest crawl wins.
	UpdateStoreInfo(ctx context.Context, storeID, rawInfo string) error
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes ingest events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
