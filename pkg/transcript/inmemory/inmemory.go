// Package inmemory provides the default, process-local transcript store.
package inmemory

import (
	"context"
	"sync"

	"github.com/d-wern/stella-relay/pkg/transcript"
)

// Store implements transcript.Store with a mutex-guarded slice.
type Store struct {
	mu    sync.RWMutex
	turns []*transcript.Turn
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Save appends a turn.
func (s *Store) Save(_ context.Context, turn *transcript.Turn) error {
	if turn == nil {
		return transcript.ErrNilTurn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn)
	return nil
}

// Recent returns up to limit turns, newest first.
func (s *Store) Recent(_ context.Context, limit int) ([]*transcript.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.turns) {
		limit = len(s.turns)
	}

	out := make([]*transcript.Turn, 0, limit)
	for i := len(s.turns) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.turns[i])
	}

	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
