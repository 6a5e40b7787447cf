package archive_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slarchive/linkarchive/internal/archive"
	memorypublisher "github.com/slarchive/linkarchive/internal/publisher/memory"
	"github.com/slarchive/linkarchive/internal/storage/memory"
)

type stubFetcher struct {
	results map[string]archive.FetchResult
	err     error
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (archive.FetchResult, error) {
	if f.err != nil {
		return archive.FetchResult{}, f.err
	}
	res, ok := f.results[rawURL]
	if !ok {
		return archive.FetchResult{}, &archive.FetchError{
			Reason: archive.ReasonTransportError,
			URL:    rawURL,
			Err:    errors.New("no route"),
		}
	}
	return res, nil
}

// passNormalizer returns content unchanged so tests control the exact
// line structure.
type passNormalizer struct{}

func (passNormalizer) Normalize(content, _ string) string { return content }

type seqCodeGenerator struct {
	codes []string
	next  int
}

func (g *seqCodeGenerator) NewCode(string) (string, error) {
	if g.next >= len(g.codes) {
		return "", errors.New("out of codes")
	}
	code := g.codes[g.next]
	g.next++
	return code, nil
}

type stubIDGenerator struct{ id string }

func (g stubIDGenerator) NewID() (string, error) { return g.id, nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type serviceFixture struct {
	svc       *archive.Service
	fetcher   *stubFetcher
	records   *memory.RecordStore
	blobs     *memory.BlobStore
	publisher *memorypublisher.Publisher
	codes     *seqCodeGenerator
	now       time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	now := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	f := &serviceFixture{
		fetcher:   &stubFetcher{results: map[string]archive.FetchResult{}},
		records:   memory.NewRecordStore(),
		blobs:     memory.NewBlobStore(),
		publisher: memorypublisher.New(),
		codes:     &seqCodeGenerator{codes: []string{"aaaa1111", "bbbb2222", "cccc3333"}},
		now:       now,
	}
	f.svc = archive.NewService(
		f.fetcher,
		passNormalizer{},
		f.records,
		f.blobs,
		f.publisher,
		f.codes,
		stubIDGenerator{id: "0191-test-id"},
		fixedClock{now: now},
		nil,
	)
	return f
}

func TestServiceArchive(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.fetcher.results["https://example.com/page"] = archive.FetchResult{
		Content:     "Hello\nWorld",
		ContentType: "text/html",
	}

	rec, err := f.svc.Archive(context.Background(), "https://example.com/page", "launch page")
	require.NoError(t, err)

	assert.Equal(t, "aaaa1111", rec.Code)
	assert.Equal(t, "0191-test-id", rec.ID)
	assert.Equal(t, "https://example.com/page", rec.OriginalURL)
	assert.Equal(t, "text/html", rec.ContentType)
	assert.Equal(t, "launch page", rec.Note)
	assert.Equal(t, f.now, rec.ArchivedAt)
	assert.Equal(t, "mem://aaaa1111", rec.BlobRef)

	stored, err := f.records.GetByCode(context.Background(), "aaaa1111")
	require.NoError(t, err)
	assert.Equal(t, rec, stored)

	text, err := f.blobs.Get(context.Background(), "aaaa1111")
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld", text)

	msgs := f.publisher.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, archive.EventTopicArchiveCreated, msgs[0].Topic)
	event, ok := msgs[0].Payload.(archive.ArchiveEvent)
	require.True(t, ok)
	assert.Equal(t, rec.Code, event.Code)
}

func TestServiceArchiveRegeneratesCollidedCode(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.fetcher.results["https://example.com/a"] = archive.FetchResult{Content: "a", ContentType: "text/plain"}
	f.fetcher.results["https://example.com/b"] = archive.FetchResult{Content: "b", ContentType: "text/plain"}

	// Force the second archive to draw the first record's code before
	// drawing a fresh one.
	f.codes.codes = []string{"aaaa1111", "aaaa1111", "bbbb2222"}

	first, err := f.svc.Archive(context.Background(), "https://example.com/a", "")
	require.NoError(t, err)
	require.Equal(t, "aaaa1111", first.Code)

	second, err := f.svc.Archive(context.Background(), "https://example.com/b", "")
	require.NoError(t, err)
	assert.Equal(t, "bbbb2222", second.Code)

	// The first record is untouched.
	kept, err := f.svc.ArchivedContent(context.Background(), "aaaa1111")
	require.NoError(t, err)
	assert.Equal(t, "a", kept)
}

func TestServiceArchiveFetchFailureIsClientError(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)

	_, err := f.svc.Archive(context.Background(), "https://unreachable.invalid/", "")
	require.Error(t, err)

	var ae *archive.ArchivalError
	require.ErrorAs(t, err, &ae)
	assert.True(t, archive.IsClientError(err))
	assert.Empty(t, f.publisher.Messages())
}

func TestServiceCompareReportsDiff(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.fetcher.results["https://example.com/page"] = archive.FetchResult{
		Content:     "A\nB\nC",
		ContentType: "text/plain",
	}
	rec, err := f.svc.Archive(context.Background(), "https://example.com/page", "")
	require.NoError(t, err)

	// The live page drifts: one line rewritten, one appended.
	f.fetcher.results["https://example.com/page"] = archive.FetchResult{
		Content:     "A\nX\nC\nD",
		ContentType: "text/plain",
	}

	result, err := f.svc.Compare(context.Background(), rec.Code)
	require.NoError(t, err)

	assert.True(t, result.HasChanges)
	assert.False(t, result.FetchFailed)
	assert.Equal(t, archive.DiffSummary{Added: 1, Changed: 1}, result.Summary)
	assert.Equal(t, []string{"line:2"}, result.ChangedLines)
	assert.Equal(t, rec, result.Record)
}

func TestServiceCompareNoChanges(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.fetcher.results["https://example.com/page"] = archive.FetchResult{
		Content:     "same\ncontent",
		ContentType: "text/plain",
	}
	rec, err := f.svc.Archive(context.Background(), "https://example.com/page", "")
	require.NoError(t, err)

	result, err := f.svc.Compare(context.Background(), rec.Code)
	require.NoError(t, err)
	assert.False(t, result.HasChanges)
	assert.Equal(t, archive.DiffSummary{}, result.Summary)
	assert.Empty(t, result.ChangedLines)
}

func TestServiceCompareDegradesOnFetchFailure(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.fetcher.results["https://example.com/page"] = archive.FetchResult{
		Content:     "snapshot",
		ContentType: "text/plain",
	}
	rec, err := f.svc.Archive(context.Background(), "https://example.com/page", "")
	require.NoError(t, err)

	// The site goes dark after archiving.
	delete(f.fetcher.results, "https://example.com/page")

	result, err := f.svc.Compare(context.Background(), rec.Code)
	require.NoError(t, err)
	assert.True(t, result.FetchFailed)
	assert.False(t, result.HasChanges)
	assert.Equal(t, archive.DiffSummary{}, result.Summary)
	assert.Equal(t, rec, result.Record)
}

func TestServiceCompareUnknownCode(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	_, err := f.svc.Compare(context.Background(), "missing1")
	assert.ErrorIs(t, err, archive.ErrNotFound)
}

func TestServiceCompareArchiveMissing(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.fetcher.results["https://example.com/page"] = archive.FetchResult{
		Content:     "snapshot",
		ContentType: "text/plain",
	}
	rec, err := f.svc.Archive(context.Background(), "https://example.com/page", "")
	require.NoError(t, err)

	f.blobs.Delete(rec.Code)

	_, err = f.svc.Compare(context.Background(), rec.Code)
	assert.ErrorIs(t, err, archive.ErrArchiveMissing)

	_, err = f.svc.ArchivedContent(context.Background(), rec.Code)
	assert.ErrorIs(t, err, archive.ErrArchiveMissing)
}

func TestServiceRecordLookups(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t)
	f.fetcher.results["https://example.com/page"] = archive.FetchResult{
		Content:     "body",
		ContentType: "text/plain",
	}
	rec, err := f.svc.Archive(context.Background(), "https://example.com/page", "")
	require.NoError(t, err)

	byCode, err := f.svc.RecordByCode(context.Background(), rec.Code)
	require.NoError(t, err)
	assert.Equal(t, rec, byCode)

	byID, err := f.svc.RecordByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, byID)

	_, err = f.svc.RecordByID(context.Background(), "nope")
	assert.ErrorIs(t, err, archive.ErrNotFound)
}
