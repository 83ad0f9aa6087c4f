// store provides the object storage used to host produced pass bundles for
// cross-device retrieval.
//
// The original system carried several independent storage implementations
// differing only in endpoint and auth; they collapse here into the single
// ObjectStore interface with one adapter per backend. Callers depend only on
// the interface.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// ObjectStore accepts a named byte blob and returns a publicly fetchable
// HTTPS URL. Put must be idempotent-safe to retry: storing the same key twice
// overwrites and returns the same URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (url string, err error)
}

// UploadError is a storage collaborator failure.
type UploadError struct {

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error

	// retryable reports whether the failure is transient
	retryable bool
}

func (e *UploadError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *UploadError) Unwrap() error   { return e.wrapped }
func (e *UploadError) Retryable() bool { return e.retryable }

// NewUploadError creates a fatal upload error.
func NewUploadError(msg string) error {
	return &UploadError{message: msg}
}

// WrapUploadError wraps an existing error as a fatal upload error.
func WrapUploadError(err error, msg string) error {
	return &UploadError{message: msg, wrapped: err}
}

// WrapRetryableUploadError wraps an existing error as a transient upload error.
// transient errors are retried by the retrying decorator below.
func WrapRetryableUploadError(err error, msg string) error {
	return &UploadError{message: msg, wrapped: err, retryable: true}
}

// initial backoff between upload attempts
const uploadBackoffBase = 250 * time.Millisecond

// retrying decorates an ObjectStore with bounded-backoff retries of
// transient failures. On exhausted retries the error is surfaced to the
// caller - the artifact is never silently dropped.
type retrying struct {
	inner      ObjectStore
	maxRetries uint64
}

// WithRetry wraps a store so transient upload failures are retried up to
// maxRetries additional times.
func WithRetry(inner ObjectStore, maxRetries int) ObjectStore {
	return &retrying{inner: inner, maxRetries: uint64(maxRetries)}
}

func (r *retrying) Put(ctx context.Context, key string, data []byte) (string, error) {
	var url string

	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewFibonacci(uploadBackoffBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		u, err := r.inner.Put(ctx, key, data)
		if err != nil {
			var uploadErr *UploadError
			if errors.As(err, &uploadErr) && uploadErr.Retryable() {
				return retry.RetryableError(err)
			}
			return err
		}
		url = u
		return nil
	})
	if err != nil {
		return "", err
	}

	return url, nil
}
