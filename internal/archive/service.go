package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/slarchive/linkarchive/internal/metrics"
)

// maxCodeAttempts bounds collision-driven code regeneration. With an
// 8-char salted hash the salt entropy makes exhaustion an internal
// error, not an expected path.
const maxCodeAttempts = 5

// EventTopicArchiveCreated is the topic archive-created events go to.
const EventTopicArchiveCreated = "archive.created"

// Service orchestrates the archive-and-compare pipeline over its
// collaborators. It owns no state beyond them.
type Service struct {
	fetcher    Fetcher
	normalizer Normalizer
	records    RecordStore
	blobs      BlobStore
	publisher  Publisher
	codes      CodeGenerator
	ids        IDGenerator
	clock      Clock
	logger     *zap.Logger
}

// NewService wires a Service. The publisher may be nil; events are then
// skipped.
func NewService(
	fetcher Fetcher,
	normalizer Normalizer,
	records RecordStore,
	blobs BlobStore,
	publisher Publisher,
	codes CodeGenerator,
	ids IDGenerator,
	clock Clock,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:    fetcher,
		normalizer: normalizer,
		records:    records,
		blobs:      blobs,
		publisher:  publisher,
		codes:      codes,
		ids:        ids,
		clock:      clock,
		logger:     logger,
	}
}

// Archive fetches and normalizes the URL, assigns a unique short code
// and id, persists the blob and the record, and returns the record.
// Failures come back as *ArchivalError; fetch policy violations keep
// their *FetchError cause for the boundary to classify.
func (s *Service) Archive(ctx context.Context, url, note string) (Record, error) {
	res, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.ObserveArchive("fetch_failed")
		return Record{}, &ArchivalError{URL: url, Err: err}
	}
	text := s.normalizer.Normalize(res.Content, res.ContentType)

	code, err := s.uniqueCode(ctx, url)
	if err != nil {
		metrics.ObserveArchive("code_failed")
		return Record{}, &ArchivalError{URL: url, Err: err}
	}
	id, err := s.ids.NewID()
	if err != nil {
		return Record{}, &ArchivalError{URL: url, Err: fmt.Errorf("generate id: %w", err)}
	}

	// Blob first, then record. A blob write that succeeds before a
	// record write that fails leaves an orphan blob, which nothing
	// references; that leak is accepted.
	ref, err := s.blobs.Put(ctx, code, text)
	if err != nil {
		metrics.ObserveArchive("store_failed")
		return Record{}, &ArchivalError{URL: url, Err: fmt.Errorf("persist blob: %w", err)}
	}
	rec := Record{
		ID:          id,
		Code:        code,
		OriginalURL: url,
		ArchivedAt:  s.clock.Now().Truncate(time.Second),
		ContentType: res.ContentType,
		Note:        note,
		BlobRef:     ref,
	}
	if err := s.records.Put(ctx, rec); err != nil {
		metrics.ObserveArchive("store_failed")
		s.logger.Warn("record write failed after blob write, blob orphaned",
			zap.String("code", code), zap.Error(err))
		return Record{}, &ArchivalError{URL: url, Err: fmt.Errorf("persist record: %w", err)}
	}

	s.publishCreated(ctx, rec)
	metrics.ObserveArchive("ok")
	s.logger.Info("archived url",
		zap.String("code", rec.Code),
		zap.String("url", rec.OriginalURL),
		zap.String("content_type", rec.ContentType),
	)
	return rec, nil
}

// Compare re-fetches the record's URL, re-normalizes it, and runs a
// positional line diff against the stored snapshot. A failed live fetch
// degrades to a no-change result with FetchFailed set rather than an
// error. Returns ErrNotFound for an unknown code and ErrArchiveMissing
// when the record exists but its blob is gone.
func (s *Service) Compare(ctx context.Context, code string) (CompareResult, error) {
	rec, err := s.records.GetByCode(ctx, code)
	if err != nil {
		return CompareResult{}, err
	}
	archived, err := s.blobs.Get(ctx, rec.Code)
	if err != nil {
		if errors.Is(err, ErrArchiveMissing) {
			return CompareResult{}, ErrArchiveMissing
		}
		return CompareResult{}, fmt.Errorf("load archive blob: %w", err)
	}

	res, err := s.fetcher.Fetch(ctx, rec.OriginalURL)
	if err != nil {
		metrics.ObserveCompare("fetch_failed")
		s.logger.Info("live fetch failed during compare, returning degraded result",
			zap.String("code", rec.Code), zap.Error(err))
		return CompareResult{Record: rec, FetchFailed: true}, nil
	}
	current := s.normalizer.Normalize(res.Content, res.ContentType)

	summary, changedLines := positionalDiff(splitLines(archived), splitLines(current))
	metrics.ObserveCompare("ok")
	return CompareResult{
		Record:       rec,
		HasChanges:   summary.Added+summary.Removed+summary.Changed > 0,
		Summary:      summary,
		ChangedLines: changedLines,
	}, nil
}

// RecordByCode looks up a record by its short code.
func (s *Service) RecordByCode(ctx context.Context, code string) (Record, error) {
	return s.records.GetByCode(ctx, code)
}

// RecordByID looks up a record by its id.
func (s *Service) RecordByID(ctx context.Context, id string) (Record, error) {
	return s.records.GetByID(ctx, id)
}

// ArchivedContent returns the stored normalized text for a code.
// ErrNotFound means no record; ErrArchiveMissing means the record exists
// without its blob.
func (s *Service) ArchivedContent(ctx context.Context, code string) (string, error) {
	if _, err := s.records.GetByCode(ctx, code); err != nil {
		return "", err
	}
	return s.blobs.Get(ctx, code)
}

func (s *Service) uniqueCode(ctx context.Context, url string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.codes.NewCode(url)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		_, err = s.records.GetByCode(ctx, code)
		if errors.Is(err, ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("check code uniqueness: %w", err)
		}
		s.logger.Warn("short code collision, regenerating", zap.String("code", code))
	}
	return "", fmt.Errorf("could not generate a unique code after %d attempts", maxCodeAttempts)
}

func (s *Service) publishCreated(ctx context.Context, rec Record) {
	if s.publisher == nil {
		return
	}
	event := ArchiveEvent{
		ID:          rec.ID,
		Code:        rec.Code,
		OriginalURL: rec.OriginalURL,
		ArchivedAt:  rec.ArchivedAt,
		ContentType: rec.ContentType,
	}
	if _, err := s.publisher.Publish(ctx, EventTopicArchiveCreated, event); err != nil {
		s.logger.Warn("publish archive event failed", zap.String("code", rec.Code), zap.Error(err))
	}
}
