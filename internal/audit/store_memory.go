package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit entries in process memory. Used in tests, the
// CLI, and deployments without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string][]Entry)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]Entry)
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ApplicationID] = append(s.entries[entry.ApplicationID], entry)
	return nil
}

// ListByApplication returns a copy so callers cannot mutate stored entries.
func (s *InMemoryStore) ListByApplication(_ context.Context, applicationID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[applicationID]...), nil
}
