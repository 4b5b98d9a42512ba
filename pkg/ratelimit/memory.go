package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. Entries are only pruned when
// their identifier is hit again, so memory grows with distinct identifiers.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]time.Time)}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration, max int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[key][:0]
	for _, t := range s.entries[key] {
		if now.Sub(t) <= window {
			kept = append(kept, t)
		}
	}

	if len(kept) < max {
		kept = append(kept, now)
		s.entries[key] = kept
		return Decision{Allowed: true, Remaining: max - len(kept)}, nil
	}

	s.entries[key] = kept
	return Decision{Allowed: false, RetryAfter: retryAfter(now, kept[0], window)}, nil
}

// Len reports how many identifiers are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
