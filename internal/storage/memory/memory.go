package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"spendsmart/internal/storage"
)

// SeedFile is the optional file NewFromFiles loads into the store.
const SeedFile = "seed_expenses.json"

// Store keeps blobs in process memory. Nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// NewFromFiles seeds key with base/seed_expenses.json when the file exists.
// The payload is stored verbatim; a bad seed behaves like corrupt storage.
func NewFromFiles(base, key string) *Store {
	s := New()
	data, err := os.ReadFile(filepath.Join(base, SeedFile))
	if err == nil {
		s.blobs[key] = data
	}
	return s
}

// Get returns a copy of the stored payload.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), value...)
	return nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
