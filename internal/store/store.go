// Package store defines persistence for game save slots. Implementations
// include PostgreSQL (source of truth), Redis (read-through cache), and
// in-memory (for testing and single-process play).
package store

import (
	"context"
	"errors"

	"github.com/stocksim/trade-engine/internal/model"
)

// ErrNotFound is returned when a save slot holds no game.
var ErrNotFound = errors.New("store: save not found")

// AutoSaveSlot is the reserved slot written after every accepted trade.
const AutoSaveSlot = "auto"

// Store persists full game snapshots per save slot. Snapshots round-trip
// every offer line variant losslessly: a loaded save restores the offer
// pool verbatim rather than regenerating it.
type Store interface {
	// SaveGame writes or overwrites one slot.
	SaveGame(ctx context.Context, game *model.SavedGame) error

	// LoadGame reads one slot, or ErrNotFound.
	LoadGame(ctx context.Context, slot string) (*model.SavedGame, error)

	// ListSaves returns metadata for all occupied slots.
	ListSaves(ctx context.Context) ([]model.SaveInfo, error)

	// DeleteSave clears one slot. Deleting an empty slot is not an error.
	DeleteSave(ctx context.Context, slot string) error
}
