package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stocksim/trade-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for save slots. Writes go to the primary store and refresh the
// cache; reads check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedStore) SaveGame(ctx context.Context, game *model.SavedGame) error {
	if err := s.primary.SaveGame(ctx, game); err != nil {
		return err
	}
	s.cacheGame(ctx, game)
	return nil
}

func (s *CachedStore) LoadGame(ctx context.Context, slot string) (*model.SavedGame, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, saveKey(slot)).Bytes()
	if err == nil {
		var game model.SavedGame
		if json.Unmarshal(data, &game) == nil {
			return &game, nil
		}
	}

	// Cache miss: read from primary.
	game, err := s.primary.LoadGame(ctx, slot)
	if err != nil {
		return nil, err
	}

	s.cacheGame(ctx, game)
	return game, nil
}

// ListSaves is not cached; slot listings are rare and cheap.
func (s *CachedStore) ListSaves(ctx context.Context) ([]model.SaveInfo, error) {
	return s.primary.ListSaves(ctx)
}

func (s *CachedStore) DeleteSave(ctx context.Context, slot string) error {
	if err := s.primary.DeleteSave(ctx, slot); err != nil {
		return err
	}
	s.rdb.Del(ctx, saveKey(slot))
	return nil
}

func (s *CachedStore) cacheGame(ctx context.Context, game *model.SavedGame) {
	if data, err := json.Marshal(game); err == nil {
		s.rdb.Set(ctx, saveKey(game.Slot), data, s.ttl)
	}
}

func saveKey(slot string) string { return fmt.Sprintf("save:%s", slot) }
