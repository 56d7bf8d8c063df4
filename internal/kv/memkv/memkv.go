// Package memkv provides an in-memory implementation of kv.Store. Suitable
// for dev/testing; nothing survives a restart.
package memkv

import (
	"context"
	"sync"
)

// Store holds blobs in memory.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Get retrieves a blob by key. Returns a copy.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

// Set stores a copy of the blob.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.blobs[key] = cp
	return nil
}
