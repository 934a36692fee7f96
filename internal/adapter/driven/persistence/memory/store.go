package memory

import (
	"context"
	"sync"

	"github.com/mireva/tete/internal/core/domain"
)

// Store keeps the mirrored state in memory only. Used in tests and when the
// server runs without a store path (ephemeral mode).
type Store struct {
	mu    sync.Mutex
	state domain.State
}

func NewStore() *Store {
	return &Store{state: domain.EmptyState()}
}

func (s *Store) Load(ctx context.Context) (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *Store) Save(ctx context.Context, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}
