package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/localmark/content-crawler/internal/content"
)

// ContentStore implements content.Store in memory. It mirrors the Postgres
// store's semantics, including source-URL uniqueness reported as
// content.ErrDuplicate.
type ContentStore struct {
	mu      sync.RWMutex
	records map[string]content.ContentRecord // keyed by id
	byURL   map[string]string                // source_url -> id
	stores  map[string]content.StoreRecord
}

// NewContentStore creates an empty in-memory store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		records: make(map[string]content.ContentRecord),
		byURL:   make(map[string]string),
		stores:  make(map[string]content.StoreRecord),
	}
}

// FindBySourceURL reports whether any record matches either URL form.
func (s *ContentStore) FindBySourceURL(_ context.Context, originalURL, normalizedURL string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byURL[originalURL]; ok {
		return true, nil
	}
	_, ok := s.byURL[normalizedURL]
	return ok, nil
}

// InsertContent inserts all records or none of them.
func (s *ContentStore) InsertContent(_ context.Context, records []content.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("record id is required")
		}
		if _, ok := s.byURL[rec.SourceURL]; ok {
			return fmt.Errorf("insert %s: %w", rec.SourceURL, content.ErrDuplicate)
		}
	}
	for _, rec := range records {
		s.records[rec.ID] = rec
		s.byURL[rec.SourceURL] = rec.ID
	}
	return nil
}

// ListContent returns up to limit records, newest first.
func (s *ContentStore) ListContent(_ context.Context, limit int) ([]content.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]content.ContentRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteContent removes records by id. Unknown ids are ignored.
func (s *ContentStore) DeleteContent(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		delete(s.records, id)
		delete(s.byURL, rec.SourceURL)
	}
	return nil
}

// UpsertStore writes a store record, replacing any existing row wholesale.
func (s *ContentStore) UpsertStore(_ context.Context, store content.StoreRecord) error {
	if store.StoreID == "" {
		return fmt.Errorf("store id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores[store.StoreID] = store
	return nil
}

// GetStore fetches one store record by id.
func (s *ContentStore) GetStore(_ context.Context, storeID string) (content.StoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.stores[storeID]
	if !ok {
		return content.StoreRecord{}, fmt.Errorf("store %s: %w", storeID, content.ErrNotFound)
	}
	return rec, nil
}

// UpdateStoreInfo overwrites the store's raw_info text.
func (s *ContentStore) UpdateStoreInfo(_ context.Context, storeID, rawInfo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.stores[storeID]
	if !ok {
		return fmt.Errorf("store %s: %w", storeID, content.ErrNotFound)
	}
	rec.RawInfo = rawInfo
	s.stores[storeID] = rec
	return nil
}
