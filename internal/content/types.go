// Package content defines the core types shared across the ingestion subsystems.
package content

import (
	"encoding/json"
	"time"
)

// CollectionMode tags how a record was acquired.
type CollectionMode string

// Collection modes persisted with each record.
const (
	ModeNet       CollectionMode = "net"       // broad keyword search
	ModeStore     CollectionMode = "store"     // targeted single-store search
	ModePrecision CollectionMode = "precision" // single-URL ingestion
)

// Valid reports whether the mode is one of the known collection modes.
func (m CollectionMode) Valid() bool {
	switch m {
	case ModeNet, ModeStore, ModePrecision:
		return true
	default:
		return false
	}
}

// ContentRecord is one ingested piece of external content, keyed by source URL.
type ContentRecord struct {
	ID             string         `json:"id,omitempty"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Category       string         `json:"category"`
	SourceURL      string         `json:"source_url"`
	ImageURL       *string        `json:"image_url"`
	Reason         string         `json:"reason,omitempty"`
	GroupName      *string        `json:"group_name,omitempty"`
	CollectionMode CollectionMode `json:"collection_mode"`
	CreatedAt      time.Time      `json:"created_at,omitempty"`
}

// StoreRecord is one managed storefront and its current public-facing text.
// Fields are last-writer-wins; there is no versioning.
type StoreRecord struct {
	StoreID          string          `json:"store_id"`
	StoreName        string          `json:"store_name"`
	RawInfo          string          `json:"raw_info"`
	ImageURL         string          `json:"image_url,omitempty"`
	AIStructuredData json.RawMessage `json:"ai_structured_data,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at,omitempty"`
}

// ExtractedItem is one structured item returned by the extraction stage before
// it is mapped onto a ContentRecord.
type ExtractedItem struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	ImageURL *string `json:"image_url"`
	Reason   string  `json:"reason"`
}

// IngestStatus is the terminal outcome of one URL's trip through the pipeline.
type IngestStatus string

// Pipeline outcomes. Duplicate and empty are successes with zero new rows.
const (
	StatusIngested  IngestStatus = "ingested"
	StatusDuplicate IngestStatus = "duplicate"
	StatusEmpty     IngestStatus = "empty"
)
