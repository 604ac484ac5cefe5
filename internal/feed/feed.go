// Package feed provides access to the external market price simulation.
// The engine only reads snapshots; price movement itself is not owned here.
package feed

import (
	"context"
	"sync"

	"github.com/stocksim/trade-engine/internal/model"
)

// Feed supplies the current per-symbol price snapshot, assumed fresh as of
// the current game day.
type Feed interface {
	CurrentPrices(ctx context.Context) (map[string]model.Quote, error)
}

// Static serves a fixed in-memory snapshot. Used for development and tests;
// prices only change through SetQuote.
type Static struct {
	mu     sync.RWMutex
	quotes map[string]model.Quote
}

// NewStatic creates a static feed over a copy of the given quotes.
func NewStatic(quotes map[string]model.Quote) *Static {
	s := &Static{quotes: make(map[string]model.Quote, len(quotes))}
	for sym, q := range quotes {
		s.quotes[sym] = q
	}
	return s
}

// CurrentPrices returns a copy of the snapshot; callers own the result.
func (s *Static) CurrentPrices(_ context.Context) (map[string]model.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Quote, len(s.quotes))
	for sym, q := range s.quotes {
		out[sym] = q
	}
	return out, nil
}

// SetQuote updates or adds one symbol's quote.
func (s *Static) SetQuote(symbol string, q model.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = q
}
