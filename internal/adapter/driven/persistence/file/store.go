package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mireva/tete/internal/core/domain"
	"github.com/rs/zerolog/log"
)

// Store persists the registry state as a single JSON document. Writes go to
// a temp file and are renamed into place, so a crash mid-write leaves the
// previous snapshot intact. An absent or unreadable file loads as the empty
// state: losing the mirror is acceptable, corrupting startup is not.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load(ctx context.Context) (domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.EmptyState(), nil
	}
	if err != nil {
		return domain.EmptyState(), err
	}

	state := domain.EmptyState()
	if err := json.Unmarshal(data, &state); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Store file unreadable, starting from empty state")
		return domain.EmptyState(), nil
	}
	// old snapshots may omit maps entirely
	if state.Rooms == nil {
		state.Rooms = make(map[string]domain.Room)
	}
	if state.OfflineMessages == nil {
		state.OfflineMessages = make(map[string][]domain.OfflineMessage)
	}
	return state, nil
}

func (s *Store) Save(ctx context.Context, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
