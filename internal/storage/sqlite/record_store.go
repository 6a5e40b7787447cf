// Package sqlite implements a RecordStore backed by an embedded SQLite
// database, replacing the single shared index file a naive
// implementation would rewrite on every operation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/slarchive/linkarchive/internal/archive"
)

// RecordStore persists archive records in SQLite.
type RecordStore struct {
	db *sql.DB
}

// Open opens or creates the database at path and initializes the
// schema. WAL mode keeps concurrent readers safe against unrelated
// writes.
func Open(path string) (*RecordStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	store := &RecordStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// Close closes the database.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

func (s *RecordStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		code TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		original_url TEXT NOT NULL,
		archived_at TIMESTAMP NOT NULL,
		content_type TEXT NOT NULL,
		note TEXT,
		blob_ref TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_records_id ON records(id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put inserts or overwrites the record under both its code and its id.
// The single-row write is atomic; a concurrent reader sees either the
// old record or the new one.
func (s *RecordStore) Put(ctx context.Context, rec archive.Record) error {
	query := `
	INSERT INTO records (code, id, original_url, archived_at, content_type, note, blob_ref)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(code) DO UPDATE SET
		id = excluded.id,
		original_url = excluded.original_url,
		archived_at = excluded.archived_at,
		content_type = excluded.content_type,
		note = excluded.note,
		blob_ref = excluded.blob_ref
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.Code, rec.ID, rec.OriginalURL, rec.ArchivedAt, rec.ContentType, rec.Note, rec.BlobRef,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetByCode fetches a record by short code.
func (s *RecordStore) GetByCode(ctx context.Context, code string) (archive.Record, error) {
	return s.get(ctx, "code", code)
}

// GetByID fetches a record by id.
func (s *RecordStore) GetByID(ctx context.Context, id string) (archive.Record, error) {
	return s.get(ctx, "id", id)
}

func (s *RecordStore) get(ctx context.Context, column, key string) (archive.Record, error) {
	query := fmt.Sprintf(`
	SELECT code, id, original_url, archived_at, content_type, note, blob_ref
	FROM records
	WHERE %s = ?
	`, column)

	var rec archive.Record
	var note sql.NullString
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&rec.Code, &rec.ID, &rec.OriginalURL, &rec.ArchivedAt, &rec.ContentType, &note, &rec.BlobRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return archive.Record{}, archive.ErrNotFound
	}
	if err != nil {
		return archive.Record{}, fmt.Errorf("query record: %w", err)
	}
	rec.Note = note.String
	rec.ArchivedAt = rec.ArchivedAt.UTC()
	return rec, nil
}
