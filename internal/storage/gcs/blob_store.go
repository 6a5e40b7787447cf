// Package gcs provides a BlobStore backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/slarchive/linkarchive/internal/archive"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	Prefix string
}

// BlobStore keeps archived text snapshots in a GCS bucket, one object
// per code.
type BlobStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed blob store.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "archives"
	}
	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
	}, nil
}

// Put uploads the normalized text for code and returns a gs:// ref.
func (s *BlobStore) Put(ctx context.Context, code, text string) (string, error) {
	key, err := s.objectKey(code)
	if err != nil {
		return "", err
	}
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = "text/plain; charset=utf-8"
	if _, err := io.WriteString(writer, text); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

// Get downloads the stored text for code. A missing object yields
// archive.ErrArchiveMissing.
func (s *BlobStore) Get(ctx context.Context, code string) (string, error) {
	key, err := s.objectKey(code)
	if err != nil {
		return "", err
	}
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", archive.ErrArchiveMissing
	}
	if err != nil {
		return "", fmt.Errorf("open object reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read object: %w", err)
	}
	return string(data), nil
}

func (s *BlobStore) objectKey(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("code is required")
	}
	return fmt.Sprintf("%s/%s.txt", s.prefix, code), nil
}
