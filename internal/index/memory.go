package index

import (
	"context"
	"sync"

	"document-query-bot/models"
)

// MemoryStore is the default in-memory index: brute-force cosine scan over
// the stored vectors. At user-uploaded corpus scale an exact linear scan
// beats the complexity of approximate indexing.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	names   []string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Rebuild stages and validates the new entries, then swaps them in under
// the write lock. Validation failure leaves the current index untouched.
func (s *MemoryStore) Rebuild(_ context.Context, entries []Entry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	staged := make([]Entry, len(entries))
	copy(staged, entries)
	names := distinctNames(staged)

	s.mu.Lock()
	s.entries = staged
	s.names = names
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) ([]models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	return rank(s.entries, vector, k), nil
}

func (s *MemoryStore) DocumentNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.names))
	copy(names, s.names)
	return names, nil
}
