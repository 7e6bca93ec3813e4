// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localmark/content-crawler/internal/content"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const uniqueViolation = "23505"

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	ContentTable    string
	StoreTable      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements content.Store on a pgx pool. Source-URL uniqueness is
// enforced by a unique index on the content table; a violation surfaces as
// content.ErrDuplicate so concurrent ingests of the same URL stay idempotent.
type Store struct {
	pool         dbPool
	contentTable string
	storeTable   string
}

// New connects a pool and builds a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewWithPool(pool, cfg.ContentTable, cfg.StoreTable)
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool dbPool, contentTable, storeTable string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if contentTable == "" {
		contentTable = "local_data"
	}
	if storeTable == "" {
		storeTable = "stores"
	}
	for _, table := range []string{contentTable, storeTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &Store{pool: pool, contentTable: contentTable, storeTable: storeTable}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// FindBySourceURL reports whether any content row matches either URL form.
func (s *Store) FindBySourceURL(ctx context.Context, originalURL, normalizedURL string) (bool, error) {
	query := fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE source_url = $1 OR source_url = $2)`,
		s.contentTable,
	)
	var exists bool
	if err := s.pool.QueryRow(ctx, query, originalURL, normalizedURL).Scan(&exists); err != nil {
		return false, fmt.Errorf("check source url: %w", err)
	}
	return exists, nil
}

// InsertContent inserts all records in one transaction. A unique-index
// violation on source_url rolls the whole batch back and reports
// content.ErrDuplicate.
func (s *Store) InsertContent(ctx context.Context, records []content.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	title,
	content,
	category,
	source_url,
	image_url,
	reason,
	group_name,
	collection_mode,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`, s.contentTable)

	for _, rec := range records {
		if rec.ID == "" {
			return fmt.Errorf("record id is required")
		}
		_, err := tx.Exec(ctx, query,
			rec.ID,
			rec.Title,
			rec.Content,
			rec.Category,
			rec.SourceURL,
			rec.ImageURL,
			rec.Reason,
			rec.GroupName,
			string(rec.CollectionMode),
			rec.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert %s: %w", rec.SourceURL, content.ErrDuplicate)
			}
			return fmt.Errorf("insert content: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// ListContent returns the most recent records, newest first.
func (s *Store) ListContent(ctx context.Context, limit int) ([]content.ContentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`
SELECT id, title, content, category, source_url, image_url, reason, group_name, collection_mode, created_at
FROM %s
ORDER BY created_at DESC
LIMIT $1`, s.contentTable)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var out []content.ContentRecord
	for rows.Next() {
		var (
			rec  content.ContentRecord
			mode string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Title,
			&rec.Content,
			&rec.Category,
			&rec.SourceURL,
			&rec.ImageURL,
			&rec.Reason,
			&rec.GroupName,
			&mode,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content row: %w", err)
		}
		rec.CollectionMode = content.CollectionMode(mode)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content rows: %w", err)
	}
	return out, nil
}

// DeleteContent removes records by id. Unknown ids are ignored.
func (s *Store) DeleteContent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.contentTable)
	if _, err := s.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}

// UpsertStore writes a store record, replacing any existing row wholesale.
func (s *Store) UpsertStore(ctx context.Context, store content.StoreRecord) error {
	if store.StoreID == "" {
		return fmt.Errorf("store id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	store_id, store_name, raw_info, image_url, ai_structured_data, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6
) ON CONFLICT (store_id) DO UPDATE SET
	store_name = EXCLUDED.store_name,
	raw_info = EXCLUDED.raw_info,
	image_url = EXCLUDED.image_url,
	ai_structured_data = EXCLUDED.ai_structured_data,
	updated_at = EXCLUDED.updated_at`, s.storeTable)

	_, err := s.pool.Exec(ctx, query,
		store.StoreID,
		store.StoreName,
		store.RawInfo,
		store.ImageURL,
		store.AIStructuredData,
		store.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert store: %w", err)
	}
	return nil
}

// GetStore fetches one store record by id.
func (s *Store) GetStore(ctx context.Context, storeID string) (content.StoreRecord, error) {
	query := fmt.Sprintf(`
SELECT store_id, store_name, raw_info, image_url, ai_structured_data, updated_at
FROM %s
WHERE store_id = $1`, s.storeTable)

	var rec content.StoreRecord
	err := s.pool.QueryRow(ctx, query, storeID).Scan(
		&rec.StoreID,
		&rec.StoreName,
		&rec.RawInfo,
		&rec.ImageURL,
		&rec.AIStructuredData,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return content.StoreRecord{}, fmt.Errorf("store %s: %w", storeID, content.ErrNotFound)
	}
	if err != nil {
		return content.StoreRecord{}, fmt.Errorf("get store: %w", err)
	}
	return rec, nil
}

// UpdateStoreInfo overwrites the store's raw_info text; latest crawl wins.
func (s *Store) UpdateStoreInfo(ctx context.Context, storeID, rawInfo string) error {
	query := fmt.Sprintf(`UPDATE %s SET raw_info = $2, updated_at = NOW() WHERE store_id = $1`, s.storeTable)
	tag, err := s.pool.Exec(ctx, query, storeID, rawInfo)
	if err != nil {
		return fmt.Errorf("update store info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store %s: %w", storeID, content.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
