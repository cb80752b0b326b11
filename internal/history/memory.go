package history

import (
	"context"
	"sync"
)

// MemoryStore keeps transcripts in process memory. Used when no backend is
// configured and as the test double.
type MemoryStore struct {
	mu    sync.Mutex
	turns map[string][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]Turn)}
}

func (s *MemoryStore) Load(_ context.Context, userID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.turns[userID]
	out := make([]Turn, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, userID string, turns []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]Turn, len(turns))
	copy(stored, turns)
	s.turns[userID] = stored
	return nil
}
