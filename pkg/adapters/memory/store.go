package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/branchtale/pkg/domain"
)

// Store implements ports.TranscriptStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Transcript
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Transcript),
	}
}

// Save persists a copy of the transcript.
func (s *Store) Save(ctx context.Context, t *domain.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[t.SessionID] = clone(*t)
	return nil
}

// Load returns a copy so callers cannot mutate the store through the pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrTranscriptNotFound
	}
	ret := clone(t)
	return &ret, nil
}

// Delete removes the transcript.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns archived session IDs, most recent first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Transcript, 0, len(s.data))
	for _, t := range s.data {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].EndedAt.Equal(all[j].EndedAt) {
			return all[i].SessionID < all[j].SessionID
		}
		return all[i].EndedAt.After(all[j].EndedAt)
	})

	ids := make([]string, 0, len(all))
	for _, t := range all {
		ids = append(ids, t.SessionID)
	}
	return ids, nil
}

func clone(t domain.Transcript) domain.Transcript {
	t.Inputs = append([]string(nil), t.Inputs...)
	t.History = append([]string(nil), t.History...)
	return t
}
