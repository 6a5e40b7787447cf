// Package local implements a local filesystem blob store for archived
// text snapshots.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/slarchive/linkarchive/internal/archive"
)

// Config captures the parameters for the local filesystem blob store.
type Config struct {
	// BaseDir is the root directory where blobs will be stored.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// BlobStore writes one text file per archive code.
type BlobStore struct {
	baseDir string
}

// New creates a new local filesystem-backed blob store.
func New(cfg Config) (*BlobStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &BlobStore{baseDir: cfg.BaseDir}, nil
}

// Put writes the normalized text for code and returns a file:// ref.
func (s *BlobStore) Put(_ context.Context, code, text string) (string, error) {
	path, err := s.blobPath(code)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return fmt.Sprintf("file://%s", path), nil
}

// Get reads the stored text for code. A record whose blob file has gone
// missing yields archive.ErrArchiveMissing.
func (s *BlobStore) Get(_ context.Context, code string) (string, error) {
	path, err := s.blobPath(code)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from the validated code
	if os.IsNotExist(err) {
		return "", archive.ErrArchiveMissing
	}
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	return string(data), nil
}

func (s *BlobStore) blobPath(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("code is required")
	}
	fullPath := filepath.Join(s.baseDir, code+".txt")

	// Codes are generated hex tokens, but verify the joined path stays
	// within baseDir anyway.
	cleanBaseDir := filepath.Clean(s.baseDir)
	cleanFullPath := filepath.Clean(fullPath)
	if !strings.HasPrefix(cleanFullPath, cleanBaseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return fullPath, nil
}
