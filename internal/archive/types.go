package archive

import "time"

// Record is the metadata persisted for each archived URL. Records are
// immutable after creation; there is no update path.
type Record struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	OriginalURL string    `json:"original_url"`
	ArchivedAt  time.Time `json:"archived_at"`
	ContentType string    `json:"content_type"`
	Note        string    `json:"note,omitempty"`
	BlobRef     string    `json:"archive_blob_ref"`
}

// FetchResult is the body and content type returned by a Fetcher.
type FetchResult struct {
	Content     string
	ContentType string
}

// DiffSummary counts line-level differences between the archived and
// the live text.
type DiffSummary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
}

// CompareResult is the outcome of comparing live content against the
// stored snapshot. When the live fetch fails, FetchFailed is set and the
// rest of the result reports no changes; a transient outage of the
// target site never surfaces as a compare error.
type CompareResult struct {
	Record       Record
	HasChanges   bool
	Summary      DiffSummary
	ChangedLines []string
	FetchFailed  bool
}

// ArchiveEvent is published after a record is created.
type ArchiveEvent struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	OriginalURL string    `json:"original_url"`
	ArchivedAt  time.Time `json:"archived_at"`
	ContentType string    `json:"content_type"`
}
