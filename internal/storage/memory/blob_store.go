// Package memory stores objects in-memory for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/JakeFAU/realtime-odds-ingest/internal/storage"
)

// Store keeps whole objects in a map, mirroring the overwrite semantics of
// the production sink.
type Store struct {
	mu    sync.RWMutex
	data  map[string][]byte
	types map[string]string
}

// NewStore creates an empty in-memory object store.
func NewStore() *Store {
	return &Store{
		data:  make(map[string][]byte),
		types: make(map[string]string),
	}
}

// Put replaces the object at key with a copy of data.
func (s *Store) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
	s.types[key] = contentType
	return nil
}

// Get returns a copy of the object at key, or storage.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// ContentType reports the content type recorded for key, if any.
func (s *Store) ContentType(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.types[key]
}

// Keys lists stored keys with the given prefix, for assertions in tests.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Len reports the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
