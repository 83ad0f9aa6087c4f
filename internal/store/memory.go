package store

// memory.go keeps artifacts in memory - used in tests and dev environments.

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore holds artifacts in a map. Safe for concurrent use.
type MemoryStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

// Put stores the blob and returns its URL.
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", NewUploadError("key is required")
	}
	if err := ctx.Err(); err != nil {
		return "", WrapUploadError(err, "upload cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = stored

	return s.baseURL + "/" + key, nil
}

// Get returns a stored blob. Primarily used in tests.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[key]
	return data, ok
}

// Len reports the number of stored objects. Primarily used in tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
