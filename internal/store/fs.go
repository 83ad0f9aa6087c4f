package store

// fs.go stores artifacts on the local filesystem behind a public base URL
// (the server, or a reverse proxy in front of it, serves the directory).
//
// writes are scoped to the configured directory with os.OpenRoot so a
// hostile key can never escape it.

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FSStore writes artifacts to a directory and returns URLs under a public base.
type FSStore struct {
	baseDir string
	baseURL string
}

// NewFSStore creates a filesystem-backed store.
//
// Parameters:
//   - baseDir: the directory artifacts are written to (must exist)
//   - baseURL: the public HTTPS prefix artifacts are fetchable under
func NewFSStore(baseDir, baseURL string) (*FSStore, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat store directory %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store path %s is not a directory", baseDir)
	}

	return &FSStore{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put writes the blob and returns its public URL.
// writing the same key twice overwrites - uploads are idempotent.
func (s *FSStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", NewUploadError("key is required")
	}
	if err := ctx.Err(); err != nil {
		return "", WrapUploadError(err, "upload cancelled")
	}

	root, err := os.OpenRoot(s.baseDir)
	if err != nil {
		return "", WrapRetryableUploadError(err, "failed to open store directory")
	}
	defer root.Close()

	if err := root.WriteFile(key, data, 0644); err != nil {
		return "", WrapRetryableUploadError(err, "failed to write artifact")
	}

	return s.baseURL + "/" + key, nil
}
