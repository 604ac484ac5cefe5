package store

import (
	"context"
	"sort"
	"sync"

	"github.com/stocksim/trade-engine/internal/model"
)

// MemoryStore implements Store with an in-memory map. Used for testing and
// development. Not suitable for durable play (no persistence).
type MemoryStore struct {
	mu    sync.RWMutex
	saves map[string]model.SavedGame
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saves: make(map[string]model.SavedGame)}
}

func (s *MemoryStore) SaveGame(_ context.Context, game *model.SavedGame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a deep copy to avoid external mutation.
	s.saves[game.Slot] = game.Clone()
	return nil
}

func (s *MemoryStore) LoadGame(_ context.Context, slot string) (*model.SavedGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, ok := s.saves[slot]
	if !ok {
		return nil, ErrNotFound
	}
	out := game.Clone()
	return &out, nil
}

func (s *MemoryStore) ListSaves(_ context.Context) ([]model.SaveInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]model.SaveInfo, 0, len(s.saves))
	for _, game := range s.saves {
		infos = append(infos, model.SaveInfo{
			Slot:    game.Slot,
			SavedAt: game.SavedAt,
			Day:     game.Day,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Slot < infos[j].Slot })
	return infos, nil
}

func (s *MemoryStore) DeleteSave(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.saves, slot)
	return nil
}
