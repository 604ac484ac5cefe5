package trade

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocksim/trade-engine/internal/model"
)

// Execute applies an accepted offer to a portfolio snapshot and returns the
// resulting portfolio. The prior snapshot is never mutated, so the caller
// keeps a consistent view for its own state management.
//
// Preconditions (sufficient cash and holdings for every give line) are
// guaranteed by generation against the same snapshot; Execute does not
// re-validate them. A stale snapshot is a programming-contract violation,
// not a recoverable runtime condition.
func Execute(offer model.TradeOffer, p model.Portfolio) model.Portfolio {
	next := p.Clone()

	for _, line := range offer.Give {
		switch line.Kind {
		case model.LineCash:
			next.Cash = next.Cash.Sub(line.Amount)
		case model.LineStock:
			remaining := next.Holdings[line.Symbol] - line.Quantity
			if remaining <= 0 {
				// Holdings never carry zero-quantity entries.
				delete(next.Holdings, line.Symbol)
			} else {
				next.Holdings[line.Symbol] = remaining
			}
		}
	}

	for _, line := range offer.Receive {
		switch line.Kind {
		case model.LineCash:
			next.Cash = next.Cash.Add(line.Amount)
		case model.LineStock:
			next.Holdings[line.Symbol] += line.Quantity
		}
	}

	next.Transactions = append(next.Transactions, model.Transaction{
		ID:        uuid.New().String(),
		Kind:      model.TransactionKindTrade,
		Give:      offer.Give,
		Receive:   offer.Receive,
		Timestamp: time.Now().UTC(),
	})

	return next
}
