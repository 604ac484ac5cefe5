// Package model defines the core domain types shared across the trade engine.
// All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LineKind discriminates the two OfferLine variants.
type LineKind string

const (
	// LineCash is a flat cash amount.
	LineCash LineKind = "cash"

	// LineStock is a quantity of one equity at a recorded unit price.
	LineStock LineKind = "stock"
)

// OfferLine is one atomic unit of value in a trade: either a cash amount or
// a quantity of one equity. The Kind tag determines which fields are set;
// every consumer must switch on it exhaustively.
type OfferLine struct {
	Kind      LineKind
	Amount    decimal.Decimal // cash only
	Symbol    string          // stock only
	Quantity  int64           // stock only, always >= 1
	UnitPrice decimal.Decimal // stock only, price at offer time
}

// CashLine builds a cash offer line.
func CashLine(amount decimal.Decimal) OfferLine {
	return OfferLine{Kind: LineCash, Amount: amount}
}

// StockLine builds an equity offer line priced at offer time.
func StockLine(symbol string, quantity int64, unitPrice decimal.Decimal) OfferLine {
	return OfferLine{Kind: LineStock, Symbol: symbol, Quantity: quantity, UnitPrice: unitPrice}
}

// Value returns the monetary value of the line: the cash amount, or
// quantity × unit price for equity lines.
func (l OfferLine) Value() decimal.Decimal {
	switch l.Kind {
	case LineCash:
		return l.Amount
	case LineStock:
		return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
	default:
		panic(fmt.Sprintf("model: unknown offer line kind %q", l.Kind))
	}
}

// cashLineJSON and stockLineJSON are the wire forms of the two variants.
// The save system requires lossless round-trips for both.
type cashLineJSON struct {
	Type   LineKind        `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type stockLineJSON struct {
	Type     LineKind        `json:"type"`
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// MarshalJSON encodes only the fields relevant to the line's variant.
func (l OfferLine) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LineCash:
		return json.Marshal(cashLineJSON{Type: LineCash, Amount: l.Amount})
	case LineStock:
		return json.Marshal(stockLineJSON{
			Type:     LineStock,
			Symbol:   l.Symbol,
			Quantity: l.Quantity,
			Price:    l.UnitPrice,
		})
	default:
		return nil, fmt.Errorf("model: cannot marshal offer line kind %q", l.Kind)
	}
}

// UnmarshalJSON decodes either variant, rejecting unknown kinds.
func (l *OfferLine) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type LineKind `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Type {
	case LineCash:
		var c cashLineJSON
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*l = CashLine(c.Amount)
		return nil
	case LineStock:
		var s stockLineJSON
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StockLine(s.Symbol, s.Quantity, s.Price)
		return nil
	default:
		return fmt.Errorf("model: unknown offer line kind %q", tag.Type)
	}
}

// TradeOffer is a proposed exchange from the player's perspective: Give is
// what the player surrenders, Receive is what the player obtains. Both sides
// are non-empty for any offer the generator emits.
type TradeOffer struct {
	ID      string      `json:"id"`
	Give    []OfferLine `json:"give"`
	Receive []OfferLine `json:"receive"`
}

// Transaction is an immutable record appended to the portfolio log.
// Once created, these are never modified or deleted.
type Transaction struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"` // always "trade" for barter executions
	Give      []OfferLine `json:"give"`
	Receive   []OfferLine `json:"receive"`
	Timestamp time.Time   `json:"timestamp"`
}

// TransactionKindTrade is the Kind of transactions produced by the trade
// executor.
const TransactionKindTrade = "trade"

// Portfolio is the single source of truth for the player's assets.
// Holdings never contains a zero or negative quantity; entries are removed
// when fully traded away.
type Portfolio struct {
	Cash         decimal.Decimal  `json:"cash"`
	Holdings     map[string]int64 `json:"holdings"`
	Transactions []Transaction    `json:"transactions"`
}

// NewPortfolio creates a portfolio with the given starting cash and no
// holdings.
func NewPortfolio(cash decimal.Decimal) Portfolio {
	return Portfolio{Cash: cash, Holdings: make(map[string]int64)}
}

// Clone returns a deep copy. The trade executor works on copies so the prior
// snapshot is never mutated in place.
func (p Portfolio) Clone() Portfolio {
	out := Portfolio{Cash: p.Cash, Holdings: make(map[string]int64, len(p.Holdings))}
	for sym, qty := range p.Holdings {
		out.Holdings[sym] = qty
	}
	if len(p.Transactions) > 0 {
		out.Transactions = make([]Transaction, len(p.Transactions))
		copy(out.Transactions, p.Transactions)
	}
	return out
}

// NetWorth returns cash plus the mark-to-market value of all holdings.
// Holdings without a quote contribute nothing.
func (p Portfolio) NetWorth(prices map[string]Quote) decimal.Decimal {
	total := p.Cash
	for sym, qty := range p.Holdings {
		q, ok := prices[sym]
		if !ok {
			continue
		}
		total = total.Add(q.CurrentPrice.Mul(decimal.NewFromInt(qty)))
	}
	return total
}

// Quote is one entry of a Market Feed price snapshot.
type Quote struct {
	CurrentPrice decimal.Decimal `json:"current_price"`
	Sector       string          `json:"sector,omitempty"`
}

// OfferPool holds the trade offers available to the player on one day.
// It has no identity beyond that day: the next day-advance replaces it.
type OfferPool struct {
	Day    int          `json:"day"`
	Offers []TradeOffer `json:"offers"`
}

// Clone returns a deep copy of the pool.
func (op OfferPool) Clone() OfferPool {
	out := OfferPool{Day: op.Day}
	if len(op.Offers) > 0 {
		out.Offers = make([]TradeOffer, len(op.Offers))
		copy(out.Offers, op.Offers)
	}
	return out
}

// SavedGame is a full session snapshot for one save slot. The offer pool is
// restored verbatim on load — regenerating it would grant extra offers.
type SavedGame struct {
	Slot      string    `json:"slot"`
	SavedAt   time.Time `json:"saved_at"`
	Day       int       `json:"day"`
	Portfolio Portfolio `json:"portfolio"`
	Pool      OfferPool `json:"pool"`
}

// Clone returns a deep copy of the saved game.
func (g SavedGame) Clone() SavedGame {
	out := g
	out.Portfolio = g.Portfolio.Clone()
	out.Pool = g.Pool.Clone()
	return out
}

// SaveInfo is the listing entry for one save slot.
type SaveInfo struct {
	Slot    string    `json:"slot"`
	SavedAt time.Time `json:"saved_at"`
	Day     int       `json:"day"`
}
