package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/slarchive/linkarchive/internal/archive"
)

// BlobStore keeps archive text in memory.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

// NewBlobStore constructs a BlobStore.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]string)}
}

// Put stores the text for code and returns a mem:// ref.
func (s *BlobStore) Put(_ context.Context, code, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[code] = text
	return fmt.Sprintf("mem://%s", code), nil
}

// Get returns the stored text for code, or archive.ErrArchiveMissing.
func (s *BlobStore) Get(_ context.Context, code string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.blobs[code]
	if !ok {
		return "", archive.ErrArchiveMissing
	}
	return text, nil
}

// Delete removes the blob for code (test helper for the corruption
// path where a record outlives its blob).
func (s *BlobStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, code)
}
