package auth

import (
	"context"
	"sync"
)

// NewMemoryStore returns a Store backed by an in-memory map.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// MemoryStore implements Store for tests and one-shot commands.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// Save stores the value under key, replacing any previous one.
func (s *MemoryStore) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Find retrieves the value stored under key.
func (s *MemoryStore) Find(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	value, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrTokenNotFound
	}
	return value, nil
}

// Delete removes the value stored under key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

// Has reports whether a key exists. Useful for tests.
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}
