// Package catalog loads and serves the static event catalog. The catalog
// is the read-only source of truth handed into the codec and the document
// generator; nothing in this process ever writes back to it.
package catalog

import (
	"sync"

	"vfestimetable/internal/model"
)

// Store holds the current catalog snapshot. Readers get a stable slice;
// refreshes swap the whole snapshot at once.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
}

func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new catalog snapshot.
func (s *Store) Replace(events []model.Event) {
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
}

// Events returns the current snapshot. Callers must treat it as read-only.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
