package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slarchive/linkarchive/internal/archive"
)

var recordColumns = []string{"code", "id", "original_url", "archived_at", "content_type", "note", "blob_ref"}

func testRecord() archive.Record {
	return archive.Record{
		ID:          "0191-abc",
		Code:        "deadbeef",
		OriginalURL: "https://example.com/page",
		ArchivedAt:  time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC),
		ContentType: "text/html",
		Note:        "a note",
		BlobRef:     "gs://bucket/archives/deadbeef.txt",
	}
}

func newMockStore(t *testing.T) (*RecordStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewRecordStoreWithPool(mock, "records")
	require.NoError(t, err)
	return store, mock
}

func TestRecordStorePut(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	rec := testRecord()

	mock.ExpectExec("INSERT INTO records").
		WithArgs(rec.Code, rec.ID, rec.OriginalURL, rec.ArchivedAt, rec.ContentType, rec.Note, rec.BlobRef).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Put(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStorePutRequiresCode(t *testing.T) {
	t.Parallel()

	store, _ := newMockStore(t)
	err := store.Put(context.Background(), archive.Record{})
	require.Error(t, err)
}

func TestRecordStoreGetByCode(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	rec := testRecord()

	mock.ExpectQuery("SELECT (.+) FROM records").
		WithArgs(rec.Code).
		WillReturnRows(pgxmock.NewRows(recordColumns).AddRow(
			rec.Code, rec.ID, rec.OriginalURL, rec.ArchivedAt, rec.ContentType, rec.Note, rec.BlobRef,
		))

	got, err := store.GetByCode(context.Background(), rec.Code)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStoreGetByID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	rec := testRecord()

	mock.ExpectQuery("SELECT (.+) FROM records").
		WithArgs(rec.ID).
		WillReturnRows(pgxmock.NewRows(recordColumns).AddRow(
			rec.Code, rec.ID, rec.OriginalURL, rec.ArchivedAt, rec.ContentType, rec.Note, rec.BlobRef,
		))

	got, err := store.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStoreGetNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM records").
		WithArgs("missing1").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetByCode(context.Background(), "missing1")
	assert.ErrorIs(t, err, archive.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRecordStoreWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewRecordStoreWithPool(nil, "records")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewRecordStoreWithPool(mock, "bad-table;drop")
	require.Error(t, err)
}
