// Package archive defines the core types and orchestration for the
// link-archive pipeline: fetching a page, normalizing its text,
// persisting records and blobs, and diffing live content against the
// stored snapshot.
package archive
