// Package postgres provides a Postgres-backed RecordStore.
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

	"github.com/slarchive/linkarchive/internal/archive"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordStoreConfig controls the Postgres connection pool.
type RecordStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// RecordStore persists archive records in Postgres.
type RecordStore struct {
	pool  dbPool
	table string
}

// NewRecordStore creates a Postgres-backed RecordStore using the
// provided config and ensures the schema exists.
func NewRecordStore(ctx context.Context, cfg RecordStoreConfig) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
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
	store := &RecordStore{pool: pool, table: table}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool
// (primarily for testing). The schema is assumed to exist.
func NewRecordStoreWithPool(pool dbPool, table string) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RecordStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *RecordStore) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	code TEXT PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	original_url TEXT NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL,
	content_type TEXT NOT NULL,
	note TEXT,
	blob_ref TEXT NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create records table: %w", err)
	}
	return nil
}

// Put inserts or overwrites a record row.
func (s *RecordStore) Put(ctx context.Context, rec archive.Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("record store is not configured")
	}
	if rec.Code == "" {
		return fmt.Errorf("record code is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	code,
	id,
	original_url,
	archived_at,
	content_type,
	note,
	blob_ref
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)
ON CONFLICT (code) DO UPDATE SET
	id = EXCLUDED.id,
	original_url = EXCLUDED.original_url,
	archived_at = EXCLUDED.archived_at,
	content_type = EXCLUDED.content_type,
	note = EXCLUDED.note,
	blob_ref = EXCLUDED.blob_ref`, s.table)

	args := []any{
		rec.Code,
		rec.ID,
		rec.OriginalURL,
		rec.ArchivedAt,
		rec.ContentType,
		rec.Note,
		rec.BlobRef,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
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
	if s == nil || s.pool == nil {
		return archive.Record{}, fmt.Errorf("record store is not configured")
	}
	query := fmt.Sprintf(`
SELECT code, id, original_url, archived_at, content_type, COALESCE(note, ''), blob_ref
FROM %s
WHERE %s = $1`, s.table, column)

	var rec archive.Record
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&rec.Code,
		&rec.ID,
		&rec.OriginalURL,
		&rec.ArchivedAt,
		&rec.ContentType,
		&rec.Note,
		&rec.BlobRef,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return archive.Record{}, archive.ErrNotFound
	}
	if err != nil {
		return archive.Record{}, fmt.Errorf("query record: %w", err)
	}
	rec.ArchivedAt = rec.ArchivedAt.UTC()
	return rec, nil
}
