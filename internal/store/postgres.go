package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocksim/trade-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// The full game snapshot is stored as JSONB so every offer line variant
// round-trips exactly as the model's codec wrote it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the saves table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS game_saves (
			slot     TEXT PRIMARY KEY,
			day      INTEGER NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL,
			snapshot JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure game_saves schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveGame(ctx context.Context, game *model.SavedGame) error {
	snapshot, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal save %s: %w", game.Slot, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_saves (slot, day, saved_at, snapshot)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (slot) DO UPDATE
		 SET day = EXCLUDED.day, saved_at = EXCLUDED.saved_at, snapshot = EXCLUDED.snapshot`,
		game.Slot, game.Day, game.SavedAt, snapshot,
	)
	return err
}

func (s *PostgresStore) LoadGame(ctx context.Context, slot string) (*model.SavedGame, error) {
	var snapshot []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM game_saves WHERE slot = $1`, slot).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load save %s: %w", slot, err)
	}

	var game model.SavedGame
	if err := json.Unmarshal(snapshot, &game); err != nil {
		return nil, fmt.Errorf("decode save %s: %w", slot, err)
	}
	return &game, nil
}

func (s *PostgresStore) ListSaves(ctx context.Context) ([]model.SaveInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT slot, day, saved_at FROM game_saves ORDER BY slot`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []model.SaveInfo
	for rows.Next() {
		var info model.SaveInfo
		if err := rows.Scan(&info.Slot, &info.Day, &info.SavedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *PostgresStore) DeleteSave(ctx context.Context, slot string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM game_saves WHERE slot = $1`, slot)
	return err
}
