package trade

import (
	"github.com/stocksim/trade-engine/internal/model"
	"github.com/stocksim/trade-engine/internal/offer"
)

// PoolStatus describes the daily offer pool's lifecycle state.
type PoolStatus string

const (
	// PoolEmpty: no pool exists yet (before the first day advance).
	PoolEmpty PoolStatus = "empty"

	// PoolPopulated: today's pool holds zero or more offers. Zero offers
	// is a valid state and displays as "no trade offers today".
	PoolPopulated PoolStatus = "populated"

	// PoolDrained: an offer was accepted or every offer was declined.
	// Persists until the next day advance.
	PoolDrained PoolStatus = "drained"
)

// DefaultMaxDailyOffers is the standard pool capacity.
const DefaultMaxDailyOffers = 3

// maxAttemptsPerSlot bounds how many fresh template draws one pool slot
// gets before being left unfilled.
const maxAttemptsPerSlot = 3

// fillPool asks the generator for up to maxOffers offers, keeping however
// many it produces. Slots whose templates keep failing are simply skipped;
// an empty pool is not an error.
func fillPool(gen *offer.Generator, day int, p *model.Portfolio, prices map[string]model.Quote, maxOffers int) model.OfferPool {
	pool := model.OfferPool{Day: day}
	for slot := 0; slot < maxOffers; slot++ {
		for attempt := 0; attempt < maxAttemptsPerSlot; attempt++ {
			o, _, ok := gen.Generate(p, prices)
			if ok {
				pool.Offers = append(pool.Offers, o)
				break
			}
		}
	}
	return pool
}
