// Package memory provides in-memory store implementations for
// development and testing.
package memory

import (
	"context"
	"sync"

	"github.com/slarchive/linkarchive/internal/archive"
)

// RecordStore keeps records in two maps sharing the same record values.
type RecordStore struct {
	mu     sync.RWMutex
	byCode map[string]archive.Record
	byID   map[string]archive.Record
}

// NewRecordStore constructs a RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		byCode: make(map[string]archive.Record),
		byID:   make(map[string]archive.Record),
	}
}

// Put inserts or overwrites the record under both keys.
func (s *RecordStore) Put(_ context.Context, rec archive.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byCode[rec.Code]; ok {
		delete(s.byID, old.ID)
	}
	s.byCode[rec.Code] = rec
	s.byID[rec.ID] = rec
	return nil
}

// GetByCode fetches a record by short code.
func (s *RecordStore) GetByCode(_ context.Context, code string) (archive.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byCode[code]
	if !ok {
		return archive.Record{}, archive.ErrNotFound
	}
	return rec, nil
}

// GetByID fetches a record by id.
func (s *RecordStore) GetByID(_ context.Context, id string) (archive.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return archive.Record{}, archive.ErrNotFound
	}
	return rec, nil
}
