package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/localmark/content-crawler/internal/content"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithPool(mock, "local_data", "stores")
	require.NoError(t, err)
	return store, mock
}

func strPtr(s string) *string { return &s }

func TestFindBySourceURL_ChecksBothForms(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("https://blog.naver.com/abc/1", "https://m.blog.naver.com/abc/1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	found, err := store.FindBySourceURL(context.Background(),
		"https://blog.naver.com/abc/1", "https://m.blog.naver.com/abc/1")
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertContent_InsertsAllRows(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	now := time.Unix(1700000000, 0).UTC()
	records := []content.ContentRecord{
		{
			ID:             "id-1",
			Title:          "초당 순두부집",
			Content:        "아침부터 줄 서는 집",
			Category:       "맛집",
			SourceURL:      "https://m.blog.naver.com/abc/1",
			ImageURL:       strPtr("https://img.example.com/1.jpg"),
			Reason:         "음식 근접 사진",
			CollectionMode: content.ModePrecision,
			CreatedAt:      now,
		},
		{
			ID:             "id-2",
			Title:          "안목해변 카페",
			Content:        "바다 전망",
			Category:       "카페",
			SourceURL:      "https://m.blog.naver.com/abc/1#2",
			ImageURL:       nil,
			Reason:         "적합한 이미지 없음",
			CollectionMode: content.ModePrecision,
			CreatedAt:      now,
		},
	}

	mock.ExpectBegin()
	for _, rec := range records {
		mock.ExpectExec("INSERT INTO local_data").
			WithArgs(
				rec.ID, rec.Title, rec.Content, rec.Category, rec.SourceURL,
				rec.ImageURL, rec.Reason, rec.GroupName, string(rec.CollectionMode), rec.CreatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.InsertContent(context.Background(), records))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertContent_UniqueViolationIsDuplicate(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO local_data").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "local_data_source_url_key"})
	mock.ExpectRollback()

	err := store.InsertContent(context.Background(), []content.ContentRecord{{
		ID:        "id-1",
		SourceURL: "https://m.blog.naver.com/abc/1",
		CreatedAt: time.Now().UTC(),
	}})
	require.ErrorIs(t, err, content.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListContent_ScansRows(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"id", "title", "content", "category", "source_url",
		"image_url", "reason", "group_name", "collection_mode", "created_at",
	}).AddRow(
		"id-1", "초당 순두부집", "본문", "맛집", "https://m.blog.naver.com/abc/1",
		strPtr("https://img.example.com/1.jpg"), "이유", (*string)(nil), "net", now,
	)

	mock.ExpectQuery("SELECT id, title, content").
		WithArgs(10).
		WillReturnRows(rows)

	records, err := store.ListContent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "초당 순두부집", records[0].Title)
	require.Equal(t, content.ModeNet, records[0].CollectionMode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteContent_EmptyIsNoop(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	require.NoError(t, store.DeleteContent(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStore_WritesRow(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	now := time.Unix(1700000000, 0).UTC()
	rec := content.StoreRecord{
		StoreID:   "store-1",
		StoreName: "초당 순두부집",
		RawInfo:   "오늘은 오후 3시까지만 합니다",
		UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO stores").
		WithArgs(rec.StoreID, rec.StoreName, rec.RawInfo, rec.ImageURL, rec.AIStructuredData, rec.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.UpsertStore(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStore_NotFound(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT store_id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetStore(context.Background(), "missing")
	require.ErrorIs(t, err, content.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStoreInfo_MissingStore(t *testing.T) {
	t.Parallel()
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE stores SET raw_info").
		WithArgs("missing", "new info").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateStoreInfo(context.Background(), "missing", "new info")
	require.ErrorIs(t, err, content.ErrNotFound)
}

func TestNewWithPool_RejectsBadTableName(t *testing.T) {
	t.Parallel()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "local_data; DROP TABLE", "stores")
	require.Error(t, err)
}
