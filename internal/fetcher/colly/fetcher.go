// Package collyfetcher implements archive.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly/v2"

	"github.com/slarchive/linkarchive/internal/archive"
	"github.com/slarchive/linkarchive/internal/metrics"
)

// DefaultMaxBodyBytes caps archived content at 1.5 MB of UTF-8 bytes.
// Oversized bodies are truncated, not rejected; the cap bounds archive
// storage size.
const DefaultMaxBodyBytes = 1_500_000

// DefaultUserAgent identifies outbound archive fetches.
const DefaultUserAgent = "SecureLinkArchive/1.0 (+https://github.com/slarchive/linkarchive)"

// Config controls fetch behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
	// BlockedHosts overrides the default loopback blocklist. Nil keeps
	// the default; an explicit empty list disables host blocking.
	BlockedHosts []string
}

// Fetcher performs single, policy-constrained GET requests using a
// Colly collector. Redirects are followed; robots.txt is not consulted
// because every fetch is caller-directed.
type Fetcher struct {
	cfg           Config
	blocked       map[string]struct{}
	baseCollector *colly.Collector
}

// defaultBlockedHosts is the minimal SSRF blocklist: exact loopback
// names only, matched case-insensitively on the parsed hostname. The
// bracketed IPv6 literal collapses into "::1" during URL parsing.
// Broader private-range filtering is deliberately not applied.
var defaultBlockedHosts = []string{"localhost", "127.0.0.1", "::1"}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	hosts := cfg.BlockedHosts
	if hosts == nil {
		hosts = defaultBlockedHosts
	}
	blocked := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		blocked[strings.ToLower(h)] = struct{}{}
	}
	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; set the field directly to keep the collector synchronous.
	c := colly.NewCollector()
	c.Async = false
	c.IgnoreRobotsTxt = true
	// The same URL is fetched at archive time and again at compare time.
	c.AllowURLRevisit = true
	// Non-2xx responses must reach OnResponse; status classification is
	// done here, not by colly.
	c.ParseHTTPErrorResponse = true
	return &Fetcher{cfg: cfg, blocked: blocked, baseCollector: c}
}

// Fetch executes a single HTTP GET against rawURL after validating the
// scheme and host policy. Failures are *archive.FetchError values.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (archive.FetchResult, error) {
	if err := f.checkPolicy(rawURL); err != nil {
		return archive.FetchResult{}, err
	}

	var (
		body        []byte
		contentType string
		status      int
		fetchErr    error
	)
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true
	collector.ParseHTTPErrorResponse = true
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		contentType = r.Headers.Get("Content-Type")
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := f.runCollector(ctx, collector, rawURL); err != nil {
		return archive.FetchResult{}, f.failure(rawURL, status, err)
	}
	if fetchErr != nil {
		return archive.FetchResult{}, f.failure(rawURL, status, fetchErr)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		fe := &archive.FetchError{Reason: archive.ReasonHTTPError, URL: rawURL, Status: status}
		metrics.ObserveFetchFailure(string(fe.Reason))
		return archive.FetchResult{}, fe
	}

	return archive.FetchResult{
		Content:     truncateUTF8(string(body), f.cfg.MaxBodyBytes),
		ContentType: cleanContentType(contentType),
	}, nil
}

func (f *Fetcher) checkPolicy(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || !isSupportedScheme(u.Scheme) {
		fe := &archive.FetchError{Reason: archive.ReasonUnsupportedScheme, URL: rawURL, Err: err}
		metrics.ObserveFetchFailure(string(fe.Reason))
		return fe
	}
	host := strings.ToLower(u.Hostname())
	if _, blocked := f.blocked[host]; blocked {
		fe := &archive.FetchError{Reason: archive.ReasonBlockedHost, URL: rawURL}
		metrics.ObserveFetchFailure(string(fe.Reason))
		return fe
	}
	return nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, rawURL string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return err
		}
		return nil
	}
}

// failure classifies a collector error as an HTTP failure when a status
// code was observed, a transport failure otherwise.
func (f *Fetcher) failure(rawURL string, status int, err error) error {
	reason := archive.ReasonTransportError
	if status != 0 && (status < http.StatusOK || status >= http.StatusMultipleChoices) {
		reason = archive.ReasonHTTPError
	}
	metrics.ObserveFetchFailure(string(reason))
	return &archive.FetchError{Reason: reason, URL: rawURL, Status: status, Err: err}
}

func isSupportedScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

// cleanContentType strips any parameter suffix (charset etc) from a
// content-type header and defaults to text/html when absent.
func cleanContentType(header string) string {
	ct := strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	if ct == "" {
		return "text/html"
	}
	return strings.ToLower(ct)
}

// truncateUTF8 cuts s to at most max bytes without splitting a
// multi-byte character.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
