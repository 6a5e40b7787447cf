package archive

import (
	"errors"
	"fmt"
)

// FetchReason classifies why a fetch was refused or failed.
type FetchReason string

// Fetch failure reasons.
const (
	ReasonUnsupportedScheme FetchReason = "unsupported_scheme"
	ReasonBlockedHost       FetchReason = "blocked_host"
	ReasonHTTPError         FetchReason = "http_error"
	ReasonTransportError    FetchReason = "transport_error"
)

// Sentinel lookup errors.
var (
	// ErrNotFound is returned when no record exists for a code or id.
	ErrNotFound = errors.New("record not found")
	// ErrArchiveMissing is returned when a record exists but its archive
	// blob does not. This is a data-integrity condition, distinct from a
	// plain not-found.
	ErrArchiveMissing = errors.New("archive blob missing")
)

// FetchError reports a policy violation or failure during an outbound
// fetch.
type FetchError struct {
	Reason FetchReason
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Reason, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ArchivalError wraps the failure that prevented a record from being
// created. The cause may be a *FetchError (client gave a bad or
// unreachable URL) or a store write failure.
type ArchivalError struct {
	URL string
	Err error
}

func (e *ArchivalError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.URL, e.Err)
}

func (e *ArchivalError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err stems from caller input (an invalid
// or unreachable URL) rather than a server-side fault.
func IsClientError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
