package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

// flakyStore fails with a transient error until failures runs out.
type flakyStore struct {
	inner    ObjectStore
	failures int32
	calls    atomic.Int32
}

func (f *flakyStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if f.calls.Add(1) <= f.failures {
		return "", WrapRetryableUploadError(errors.New("backend unavailable"), "upload failed")
	}
	return f.inner.Put(ctx, key, data)
}

// fatalStore always fails with a non-retryable error.
type fatalStore struct {
	calls atomic.Int32
}

func (f *fatalStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	f.calls.Add(1)
	return "", NewUploadError("access denied")
}

func TestMemoryStorePut(t *testing.T) {
	s := NewMemoryStore("https://cdn.example.com/passes/")

	url, err := s.Put(context.Background(), "card-1.pkpass", []byte("archive"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if url != "https://cdn.example.com/passes/card-1.pkpass" {
		t.Errorf("url = %q", url)
	}

	data, ok := s.Get("card-1.pkpass")
	if !ok || string(data) != "archive" {
		t.Errorf("Get() = %q, %v", data, ok)
	}

	// stored bytes are a copy, not an alias
	original := []byte("mutable")
	if _, err := s.Put(context.Background(), "card-2.pkpass", original); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	original[0] = 'X'
	data, _ = s.Get("card-2.pkpass")
	if string(data) != "mutable" {
		t.Errorf("stored bytes aliased the caller's slice: %q", data)
	}

	if _, err := s.Put(context.Background(), "", []byte("x")); err == nil {
		t.Error("Put() with empty key should fail")
	}
}

func TestFSStorePut(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := NewFSStore(tmpDir, "https://cdn.example.com/passes")
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	url, err := s.Put(context.Background(), "card-1.pkpass", []byte("archive"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if url != "https://cdn.example.com/passes/card-1.pkpass" {
		t.Errorf("url = %q", url)
	}

	// overwriting the same key is allowed and returns the same URL
	url2, err := s.Put(context.Background(), "card-1.pkpass", []byte("newer archive"))
	if err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}
	if url2 != url {
		t.Errorf("overwrite returned %q, want %q", url2, url)
	}

	// a key must not escape the store directory
	if _, err := s.Put(context.Background(), "../escape.pkpass", []byte("x")); err == nil {
		t.Error("Put() with a traversal key should fail")
	}
}

func TestNewFSStoreRejectsMissingDir(t *testing.T) {
	if _, err := NewFSStore("/nonexistent/store/dir", "https://cdn.example.com"); err == nil {
		t.Error("NewFSStore() should reject a missing directory")
	}
}

func TestFSStoreCancelledContext(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "https://cdn.example.com")
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Put(ctx, "card-1.pkpass", []byte("x")); err == nil {
		t.Error("Put() with a cancelled context should fail")
	}
}

func TestWithRetryRecoversTransientFailures(t *testing.T) {
	flaky := &flakyStore{inner: NewMemoryStore("https://cdn.example.com"), failures: 2}

	s := WithRetry(flaky, 3)

	url, err := s.Put(context.Background(), "card-1.pkpass", []byte("archive"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if url != "https://cdn.example.com/card-1.pkpass" {
		t.Errorf("url = %q", url)
	}
	if n := flaky.calls.Load(); n != 3 {
		t.Errorf("backend saw %d calls, want 3", n)
	}
}

func TestWithRetryExhaustsRetries(t *testing.T) {
	flaky := &flakyStore{inner: NewMemoryStore("https://cdn.example.com"), failures: 100}

	s := WithRetry(flaky, 2)

	_, err := s.Put(context.Background(), "card-1.pkpass", []byte("archive"))
	if err == nil {
		t.Fatal("Put() should fail when the backend never recovers")
	}

	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Errorf("error = %v, want UploadError", err)
	}
	if n := flaky.calls.Load(); n != 3 {
		t.Errorf("backend saw %d calls, want 3 (initial + 2 retries)", n)
	}
}

func TestWithRetryDoesNotRetryFatalFailures(t *testing.T) {
	fatal := &fatalStore{}

	s := WithRetry(fatal, 5)

	if _, err := s.Put(context.Background(), "card-1.pkpass", []byte("archive")); err == nil {
		t.Fatal("Put() should surface the fatal error")
	}
	if n := fatal.calls.Load(); n != 1 {
		t.Errorf("backend saw %d calls, want 1 (fatal errors must not be retried)", n)
	}
}
