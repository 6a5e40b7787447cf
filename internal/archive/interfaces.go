package archive

import (
	"context"
	"time"
)

// Fetcher retrieves the content of a URL, enforcing scheme, host and
// size policy. Violations and HTTP/transport failures are reported as
// *FetchError values.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchResult, error)
}

// Normalizer converts fetched content into comparison-ready plain text.
type Normalizer interface {
	Normalize(content, contentType string) string
}

// RecordStore persists archive records, looked up by code or by id.
// Lookups return ErrNotFound when no record exists for the key.
type RecordStore interface {
	Put(ctx context.Context, rec Record) error
	GetByCode(ctx context.Context, code string) (Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
}

// BlobStore persists the normalized archive text keyed by short code.
// Put returns a reference (file path, object URI) stored on the record.
// Get returns ErrArchiveMissing when no blob exists for the code.
type BlobStore interface {
	Put(ctx context.Context, code, text string) (string, error)
	Get(ctx context.Context, code string) (string, error)
}

// Publisher pushes archive-created events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// CodeGenerator produces short codes for records.
type CodeGenerator interface {
	NewCode(url string) (string, error)
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
