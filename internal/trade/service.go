// Package trade provides the HTTP handlers and business logic for the
// daily barter offer pool: populating it on day advances, executing
// accepted offers against the portfolio, and managing save slots.
//
// All monetary values use shopspring/decimal — never float64 for money.
package trade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/stocksim/trade-engine/internal/achievement"
	"github.com/stocksim/trade-engine/internal/feed"
	"github.com/stocksim/trade-engine/internal/metrics"
	"github.com/stocksim/trade-engine/internal/model"
	"github.com/stocksim/trade-engine/internal/offer"
	"github.com/stocksim/trade-engine/internal/store"
)

// ErrOfferIndex is returned when an accept or decline names a slot the
// pool does not hold.
var ErrOfferIndex = errors.New("trade: offer index out of range")

// Service owns one game session: the portfolio (single source of truth for
// player assets), the daily offer pool, and the collaborators around them.
// A mutex serializes day advances, accepts, and declines — the game model
// is single-threaded even though the transport is not.
type Service struct {
	feed      feed.Feed
	store     store.Store
	gen       *offer.Generator
	tracker   *achievement.Tracker
	wsHub     *WSHub // optional WebSocket hub for real-time events
	maxOffers int

	mu        sync.Mutex
	day       int // -1 until the first day advance or load
	prices    map[string]model.Quote
	portfolio model.Portfolio
	pool      model.OfferPool
	drained   bool
}

// NewService creates a session with the given starting cash and no
// holdings. Pass nil for hub or tracker if those collaborators are not
// needed.
func NewService(fd feed.Feed, st store.Store, gen *offer.Generator, tracker *achievement.Tracker, hub *WSHub, startingCash decimal.Decimal, maxOffers int) *Service {
	if maxOffers <= 0 {
		maxOffers = DefaultMaxDailyOffers
	}
	return &Service{
		feed:      fd,
		store:     st,
		gen:       gen,
		tracker:   tracker,
		wsHub:     hub,
		maxOffers: maxOffers,
		day:       -1,
		portfolio: model.NewPortfolio(startingCash),
	}
}

// --- Session operations ---

// AdvanceDay resolves a day-advance event: the price snapshot is fetched
// first, then a fresh pool is generated against it. A repeated notification
// for the current day returns the existing pool unchanged — redundant
// ticks must never grant extra offers.
func (s *Service) AdvanceDay(ctx context.Context, day int) (model.OfferPool, error) {
	prices, err := s.feed.CurrentPrices(ctx)
	if err != nil {
		return model.OfferPool{}, fmt.Errorf("advance day %d: %w", day, err)
	}

	s.mu.Lock()
	if day == s.day {
		pool := s.pool.Clone()
		s.mu.Unlock()
		return pool, nil
	}
	s.day = day
	s.prices = prices
	s.pool = fillPool(s.gen, day, &s.portfolio, prices, s.maxOffers)
	s.drained = false
	pool := s.pool.Clone()
	s.mu.Unlock()

	metrics.PoolSize.Set(float64(len(pool.Offers)))
	slog.Info("offer pool populated", "day", day, "offers", len(pool.Offers))
	s.wsHub.Broadcast(WSMessage{Type: "offers_posted", Day: day, OfferCount: len(pool.Offers)})
	return pool, nil
}

// NextDay returns the day number a fresh advance would use.
func (s *Service) NextDay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.day < 0 {
		return 1
	}
	return s.day + 1
}

// Accept executes the offer at the given index against the portfolio and
// drains the pool: taking any one deal consumes the day's offers.
func (s *Service) Accept(ctx context.Context, index int) (model.Transaction, model.Portfolio, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.pool.Offers) {
		s.mu.Unlock()
		return model.Transaction{}, model.Portfolio{}, ErrOfferIndex
	}

	accepted := s.pool.Offers[index]
	s.portfolio = Execute(accepted, s.portfolio)
	tx := s.portfolio.Transactions[len(s.portfolio.Transactions)-1]

	s.pool.Offers = nil
	s.drained = true

	day := s.day
	netWorth := s.portfolio.NetWorth(s.prices)
	snapshot := s.snapshotLocked(store.AutoSaveSlot)
	result := s.portfolio.Clone()
	s.mu.Unlock()

	metrics.TradesExecuted.Inc()
	metrics.PoolSize.Set(0)
	if s.tracker != nil {
		s.tracker.RecordTrade(tx, netWorth)
	}

	giveValue := offer.Value(tx.Give)
	receiveValue := offer.Value(tx.Receive)
	slog.Info("trade executed",
		"transaction", tx.ID,
		"day", day,
		"give_value", giveValue.String(),
		"receive_value", receiveValue.String(),
		"cash", result.Cash.String(),
	)
	s.wsHub.Broadcast(WSMessage{
		Type:          "trade_executed",
		Day:           day,
		TransactionID: tx.ID,
		GiveValue:     giveValue.String(),
		ReceiveValue:  receiveValue.String(),
	})

	if err := s.store.SaveGame(ctx, &snapshot); err != nil {
		slog.Error("auto-save after trade failed", "err", err)
	}

	return tx, result, nil
}

// Decline removes one offer from the pool, preserving the order of the
// rest. Declining the last offer drains the pool for the day.
func (s *Service) Decline(index int) (model.OfferPool, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.pool.Offers) {
		s.mu.Unlock()
		return model.OfferPool{}, ErrOfferIndex
	}

	s.pool.Offers = append(s.pool.Offers[:index], s.pool.Offers[index+1:]...)
	if len(s.pool.Offers) == 0 {
		s.drained = true
	}
	day := s.day
	pool := s.pool.Clone()
	s.mu.Unlock()

	metrics.OffersDeclined.Inc()
	metrics.PoolSize.Set(float64(len(pool.Offers)))
	slog.Info("offer declined", "day", day, "remaining", len(pool.Offers))
	return pool, nil
}

// Offers returns the current pool and its lifecycle status.
func (s *Service) Offers() (model.OfferPool, PoolStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Clone(), s.poolStatusLocked()
}

// Portfolio returns a snapshot of the player's assets.
func (s *Service) Portfolio() model.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolio.Clone()
}

// Day returns the current game day, or -1 before the first advance.
func (s *Service) Day() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.day
}

// SaveTo snapshots the session into the given slot.
func (s *Service) SaveTo(ctx context.Context, slot string) (model.SaveInfo, error) {
	s.mu.Lock()
	snapshot := s.snapshotLocked(slot)
	s.mu.Unlock()

	if err := s.store.SaveGame(ctx, &snapshot); err != nil {
		return model.SaveInfo{}, fmt.Errorf("save slot %s: %w", slot, err)
	}
	slog.Info("game saved", "slot", slot, "day", snapshot.Day)
	return model.SaveInfo{Slot: slot, SavedAt: snapshot.SavedAt, Day: snapshot.Day}, nil
}

// LoadFrom restores the session from a save slot. The offer pool comes
// back verbatim — regenerating it would grant extra offers for the day.
func (s *Service) LoadFrom(ctx context.Context, slot string) (*model.SavedGame, error) {
	game, err := s.store.LoadGame(ctx, slot)
	if err != nil {
		return nil, err
	}

	// Refresh the price snapshot so net worth and achievements track the
	// restored holdings; a feed outage keeps the previous snapshot.
	prices, priceErr := s.feed.CurrentPrices(ctx)

	s.mu.Lock()
	s.day = game.Day
	s.portfolio = game.Portfolio.Clone()
	s.pool = game.Pool.Clone()
	s.drained = len(s.pool.Offers) == 0
	if priceErr == nil {
		s.prices = prices
	}
	s.mu.Unlock()

	if priceErr != nil {
		slog.Warn("price refresh on load failed", "slot", slot, "err", priceErr)
	}

	metrics.PoolSize.Set(float64(len(game.Pool.Offers)))
	slog.Info("game loaded", "slot", slot, "day", game.Day, "offers", len(game.Pool.Offers))
	return game, nil
}

// snapshotLocked builds a SavedGame from current state. Callers hold s.mu.
func (s *Service) snapshotLocked(slot string) model.SavedGame {
	return model.SavedGame{
		Slot:      slot,
		SavedAt:   time.Now().UTC(),
		Day:       s.day,
		Portfolio: s.portfolio.Clone(),
		Pool:      s.pool.Clone(),
	}
}

// poolStatusLocked derives the lifecycle state. Callers hold s.mu.
func (s *Service) poolStatusLocked() PoolStatus {
	switch {
	case s.day < 0:
		return PoolEmpty
	case s.drained:
		return PoolDrained
	default:
		return PoolPopulated
	}
}

// --- HTTP surface ---

// Routes mounts the game API onto r (expected under /api/v1).
func (s *Service) Routes(r chi.Router) {
	r.Post("/day/advance", s.handleAdvanceDay)
	r.Get("/offers", s.handleOffers)
	r.Post("/offers/{index}/accept", s.handleAccept)
	r.Post("/offers/{index}/decline", s.handleDecline)
	r.Get("/portfolio", s.handlePortfolio)
	r.Get("/achievements", s.handleAchievements)
	r.Get("/saves", s.handleListSaves)
	r.Post("/saves/{slot}", s.handleSave)
	r.Post("/saves/{slot}/load", s.handleLoad)
	r.Delete("/saves/{slot}", s.handleDeleteSave)
}

type advanceDayRequest struct {
	Day int `json:"day"`
}

type offersResponse struct {
	Day    int                `json:"day"`
	Status PoolStatus         `json:"status"`
	Offers []model.TradeOffer `json:"offers"`
}

type acceptResponse struct {
	Transaction model.Transaction `json:"transaction"`
	Portfolio   model.Portfolio   `json:"portfolio"`
}

type portfolioResponse struct {
	Portfolio model.Portfolio `json:"portfolio"`
	NetWorth  decimal.Decimal `json:"net_worth"`
}

// handleAdvanceDay handles POST /day/advance. The body may carry an
// explicit day number; without one the next day is used.
func (s *Service) handleAdvanceDay(w http.ResponseWriter, r *http.Request) {
	var req advanceDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	day := req.Day
	if day <= 0 {
		day = s.NextDay()
	}

	pool, err := s.AdvanceDay(r.Context(), day)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, offersResponse{
		Day:    pool.Day,
		Status: s.status(),
		Offers: offersOrEmpty(pool.Offers),
	})
}

// handleOffers handles GET /offers. Zero offers with status "populated"
// displays as "no trade offers today", never as an error.
func (s *Service) handleOffers(w http.ResponseWriter, r *http.Request) {
	pool, status := s.Offers()
	writeJSON(w, http.StatusOK, offersResponse{
		Day:    pool.Day,
		Status: status,
		Offers: offersOrEmpty(pool.Offers),
	})
}

// handleAccept handles POST /offers/{index}/accept.
func (s *Service) handleAccept(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, "invalid offer index", http.StatusBadRequest)
		return
	}

	tx, portfolio, err := s.Accept(r.Context(), index)
	if errors.Is(err, ErrOfferIndex) {
		writeError(w, "no offer at that index", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, acceptResponse{Transaction: tx, Portfolio: portfolio})
}

// handleDecline handles POST /offers/{index}/decline.
func (s *Service) handleDecline(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, "invalid offer index", http.StatusBadRequest)
		return
	}

	pool, err := s.Decline(index)
	if errors.Is(err, ErrOfferIndex) {
		writeError(w, "no offer at that index", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, offersResponse{
		Day:    pool.Day,
		Status: s.status(),
		Offers: offersOrEmpty(pool.Offers),
	})
}

// handlePortfolio handles GET /portfolio.
func (s *Service) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	portfolio := s.portfolio.Clone()
	netWorth := s.portfolio.NetWorth(s.prices)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, portfolioResponse{Portfolio: portfolio, NetWorth: netWorth})
}

// handleAchievements handles GET /achievements.
func (s *Service) handleAchievements(w http.ResponseWriter, r *http.Request) {
	unlocked := []achievement.Achievement{}
	if s.tracker != nil {
		unlocked = append(unlocked, s.tracker.Unlocked()...)
	}
	writeJSON(w, http.StatusOK, unlocked)
}

// handleSave handles POST /saves/{slot}.
func (s *Service) handleSave(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	if slot == "" {
		writeError(w, "save slot is required", http.StatusBadRequest)
		return
	}

	info, err := s.SaveTo(r.Context(), slot)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// handleLoad handles POST /saves/{slot}/load.
func (s *Service) handleLoad(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")

	game, err := s.LoadFrom(r.Context(), slot)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "no save in slot "+slot, http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// handleListSaves handles GET /saves.
func (s *Service) handleListSaves(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.ListSaves(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []model.SaveInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleDeleteSave handles DELETE /saves/{slot}.
func (s *Service) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	if err := s.store.DeleteSave(r.Context(), slot); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) status() PoolStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poolStatusLocked()
}

func offersOrEmpty(offers []model.TradeOffer) []model.TradeOffer {
	if offers == nil {
		return []model.TradeOffer{}
	}
	return offers
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
