// Package idempotency tracks opaque dedup tokens (delivery event ids, replied
// timestamps, mention message ids) so each logical message is processed at
// most once within a process lifetime.
package idempotency

import (
	"strings"
	"sync"
)

const DefaultCapacity = 4096

// TokenSet is a bounded set of opaque string tokens. When the capacity is
// exceeded the oldest token is evicted first; dedup only has to hold within a
// reasonable redelivery window, not forever.
type TokenSet struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
}

func NewTokenSet(capacity int) *TokenSet {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &TokenSet{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Seen reports whether the token has been recorded. Blank tokens are never
// considered seen.
func (s *TokenSet) Seen(token string) bool {
	token = strings.TrimSpace(token)
	if s == nil || token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[token]
	return ok
}

// Record adds the token and reports whether it was newly added. Recording a
// token that is already present returns false, which is how callers detect a
// duplicate atomically.
func (s *TokenSet) Record(token string) bool {
	token = strings.TrimSpace(token)
	if s == nil || token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[token]; ok {
		return false
	}
	s.seen[token] = struct{}{}
	s.order = append(s.order, token)
	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.seen, oldest)
	}
	return true
}

func (s *TokenSet) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
