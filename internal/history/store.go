// Package history keeps the per-session record of completed analyses.
// Storage is in-memory only; it is discarded when the session ends.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sozercan/mail-ai-mole/apimodels"
)

var ErrNotFound = errors.New("history entry not found")

// Store is one session's analysis history. List returns entries newest
// first. Entries are never mutated after Append.
type Store struct {
	mu         sync.RWMutex
	entries    []apimodels.HistoryEntry
	maxEntries int
}

// New creates a store holding at most maxEntries entries; 0 or
// negative means unbounded.
func New(maxEntries int) *Store {
	return &Store{maxEntries: maxEntries}
}

// Append records one completed analysis and returns the stored entry.
func (s *Store) Append(req apimodels.AnalysisRequest, analysis apimodels.Analysis) apimodels.HistoryEntry {
	entry := apimodels.HistoryEntry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Request:   req,
		Analysis:  analysis,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}
	return entry
}

// List returns all entries, most recent first.
func (s *Store) List() []apimodels.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]apimodels.HistoryEntry, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = e
	}
	return out
}

// Get looks an entry up by its id.
func (s *Store) Get(id string) (apimodels.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return apimodels.HistoryEntry{}, ErrNotFound
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
