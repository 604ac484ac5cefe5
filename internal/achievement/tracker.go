// Package achievement tracks gameplay milestones unlocked by trading
// activity. The tracker is an explicit per-session service object passed to
// its consumers, never an ambient singleton.
package achievement

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocksim/trade-engine/internal/model"
)

// Achievement is one unlocked milestone.
type Achievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

var (
	richThreshold        = decimal.NewFromInt(100_000)
	millionaireThreshold = decimal.NewFromInt(1_000_000)
)

// Tracker observes executed trades and awards milestones.
type Tracker struct {
	mu       sync.Mutex
	trades   int
	unlocked map[string]Achievement
	order    []string
}

// NewTracker creates an empty tracker for one game session.
func NewTracker() *Tracker {
	return &Tracker{unlocked: make(map[string]Achievement)}
}

// RecordTrade registers one executed trade transaction and the portfolio's
// resulting net worth, unlocking any milestones they satisfy.
func (t *Tracker) RecordTrade(_ model.Transaction, netWorth decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.trades++
	if t.trades == 1 {
		t.unlock("first_trade", "First Steps", "Complete your first barter trade")
	}
	if t.trades >= 10 {
		t.unlock("deal_maker", "Deal Maker", "Complete ten barter trades")
	}
	if netWorth.GreaterThanOrEqual(richThreshold) {
		t.unlock("rich_investor", "Rich Investor", "Grow your portfolio to $100,000")
	}
	if netWorth.GreaterThanOrEqual(millionaireThreshold) {
		t.unlock("millionaire", "Stock Market Millionaire", "Grow your portfolio to $1,000,000")
	}
}

// Unlocked returns all unlocked achievements in unlock order.
func (t *Tracker) Unlocked() []Achievement {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Achievement, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.unlocked[id])
	}
	return out
}

// unlock awards an achievement once. Callers hold t.mu.
func (t *Tracker) unlock(id, name, description string) {
	if _, ok := t.unlocked[id]; ok {
		return
	}
	t.unlocked[id] = Achievement{
		ID:          id,
		Name:        name,
		Description: description,
		UnlockedAt:  time.Now().UTC(),
	}
	t.order = append(t.order, id)
	slog.Info("achievement unlocked", "id", id, "name", name)
}
