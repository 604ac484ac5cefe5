// Package offer implements the barter trade-offer engine: valuation of
// offer line sets, the shared fairness policy, and the randomized generator
// that proposes approximately value-equal multi-asset exchanges.
package offer

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocksim/trade-engine/internal/metrics"
	"github.com/stocksim/trade-engine/internal/model"
)

// Template identifies one of the four structural trade patterns.
type Template int

const (
	// CashForStock: the player pays cash for 1-2 market equities.
	CashForStock Template = iota

	// StockForCash: the player gives up owned equities for cash.
	StockForCash

	// StockForStock: owned equities for different market equities.
	StockForStock

	// MixedForMixed: probabilistic cash/equity mix on both sides.
	MixedForMixed
)

func (t Template) String() string {
	switch t {
	case CashForStock:
		return "cash_for_stock"
	case StockForCash:
		return "stock_for_cash"
	case StockForStock:
		return "stock_for_stock"
	case MixedForMixed:
		return "mixed_for_mixed"
	default:
		return "unknown"
	}
}

var (
	// minSideValue is the smallest side value worth offering.
	minSideValue = decimal.NewFromInt(10)

	// defaultPrice stands in for holdings the feed has no quote for.
	defaultPrice = decimal.NewFromInt(100)

	// maxCashShare bounds how much of the player's cash the counterpart
	// sizes a trade against.
	maxCashShare = decimal.NewFromFloat(0.6)

	half       = decimal.NewFromFloat(0.5)
	twoFifths  = decimal.NewFromFloat(0.4)
	ninetyPct  = decimal.NewFromFloat(0.9)
	oneAndHalf = decimal.NewFromFloat(1.5)
	tenPct     = decimal.NewFromFloat(0.1)
)

// Generator builds randomized barter offers between the player and an
// implicit counterparty. Randomness is routed through the injected source
// so template selection and variance are deterministically testable.
type Generator struct {
	rng     *rand.Rand
	balance Balancer
}

// NewGenerator creates a generator around the given random source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, balance: NewBalancer()}
}

// marketStock and ownedStock are working-copy candidate entries. Templates
// draw from them without replacement; the caller's maps are never touched.
type marketStock struct {
	symbol string
	price  decimal.Decimal
}

type ownedStock struct {
	symbol string
	held   int64
	price  decimal.Decimal
}

// Generate proposes one trade offer against the portfolio snapshot and the
// current price snapshot. The returned bool is false when the chosen
// template could not produce an offer — an expected, non-exceptional
// outcome the pool filler skips over.
func (g *Generator) Generate(p *model.Portfolio, prices map[string]model.Quote) (model.TradeOffer, Template, bool) {
	market := marketStocks(prices)
	owned := ownedStocks(p, prices)

	tmpl := Template(g.rng.IntN(4))
	if len(owned) == 0 {
		// Without equities only a cash-for-stock trade is possible.
		tmpl = CashForStock
	}

	var give, receive []model.OfferLine
	var ok bool
	switch tmpl {
	case CashForStock:
		give, receive, ok = g.cashForStock(p.Cash, market)
	case StockForCash:
		give, receive, ok = g.stockForCash(owned)
	case StockForStock:
		give, receive, ok = g.stockForStock(owned, market)
	case MixedForMixed:
		give, receive, ok = g.mixedForMixed(p.Cash, owned, market)
	}

	if !ok || len(give) == 0 || len(receive) == 0 {
		metrics.OfferGenerationFailures.WithLabelValues(tmpl.String()).Inc()
		return model.TradeOffer{}, tmpl, false
	}

	g.auditFairness(tmpl, give, receive)
	metrics.OffersGenerated.WithLabelValues(tmpl.String()).Inc()

	return model.TradeOffer{
		ID:      uuid.New().String(),
		Give:    give,
		Receive: receive,
	}, tmpl, true
}

// cashForStock has the counterpart offer 1-2 market equities sized to what
// the player's cash could plausibly afford; the player pays cash within the
// tolerance band of the equity value.
func (g *Generator) cashForStock(cash decimal.Decimal, market []marketStock) (give, receive []model.OfferLine, ok bool) {
	minOffer := minCashOffer(cash)
	if cash.LessThan(minOffer) {
		return nil, nil, false
	}
	maxCash := cash.Mul(maxCashShare)

	lines := g.rng.IntN(2) + 1
	total := decimal.Zero
	for i := 0; i < lines && len(market) > 0; i++ {
		s := pick(g.rng, &market)

		// 1-5 units, capped by what the cash budget affords.
		qty := int64(g.rng.IntN(5) + 1)
		if affordable := maxCash.Div(s.price).IntPart(); affordable < qty {
			qty = affordable
		}
		if qty <= 0 {
			continue // too expensive for this player
		}

		receive = append(receive, model.StockLine(s.symbol, qty, s.price))
		total = total.Add(s.price.Mul(decimal.NewFromInt(qty)))
	}
	if len(receive) == 0 || total.GreaterThan(maxCash.Mul(oneAndHalf)) {
		return nil, nil, false
	}

	// Cash request: equity value with a ±10% swing, never more than half
	// the player's cash and never below the minimum offer floor.
	amount := total.Mul(g.balance.SymmetricVariance(g.rng, 0.10))
	if ceiling := cash.Mul(half); amount.GreaterThan(ceiling) {
		amount = ceiling
	}
	floor := decimal.Min(minOffer, total.Mul(ninetyPct))
	amount = decimal.Max(decimal.Min(amount, maxCash), floor)

	// Re-clamp if the clamps above pushed the request past the ceiling,
	// favoring a value 0-10% above the equity value.
	if !g.balance.WithinCeiling(amount, total) {
		amount = decimal.Min(
			total.Mul(g.balance.upper()),
			decimal.Max(total.Mul(g.balance.lower()), minOffer),
		)
	}

	give = append(give, model.CashLine(amount.Round(2)))
	return give, receive, true
}

// stockForCash asks for a slice of the player's holdings and returns cash
// hard-clamped to the tolerance band around the surrendered value.
func (g *Generator) stockForCash(owned []ownedStock) (give, receive []model.OfferLine, ok bool) {
	if len(owned) == 0 {
		return nil, nil, false
	}

	give, total := g.playerStockSide(owned)
	if total.LessThan(minSideValue) {
		return nil, nil, false
	}

	amount := g.balance.ClampWithin(total.Mul(g.balance.FairVariance(g.rng)), total)
	receive = append(receive, model.CashLine(amount.Round(2)))
	return give, receive, true
}

// stockForStock swaps a slice of the player's holdings for different market
// equities sized to the same value, with whole-unit correction on the last
// counterpart line.
func (g *Generator) stockForStock(owned []ownedStock, market []marketStock) (give, receive []model.OfferLine, ok bool) {
	if len(owned) == 0 {
		return nil, nil, false
	}

	give, total := g.playerStockSide(owned)
	if total.LessThan(minSideValue) {
		return nil, nil, false
	}

	// Counterpart candidates exclude whatever the player is giving up.
	giving := make(map[string]bool, len(give))
	for _, line := range give {
		giving[line.Symbol] = true
	}
	var pool []marketStock
	for _, s := range market {
		if !giving[s.symbol] {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		return nil, nil, false
	}

	target := g.balance.ClampWithin(total.Mul(g.balance.FairVariance(g.rng)), total)
	lines := g.rng.IntN(2) + 1
	perLine := target.Div(decimal.NewFromInt(int64(lines)))
	current := decimal.Zero

	for i := 0; i < lines && len(pool) > 0; i++ {
		s := pick(g.rng, &pool)
		qty := perLine.Div(s.price).IntPart()
		if qty < 1 {
			qty = 1
		}
		receive = append(receive, model.StockLine(s.symbol, qty, s.price))
		current = current.Add(s.price.Mul(decimal.NewFromInt(qty)))
	}
	if len(receive) == 0 {
		return nil, nil, false
	}

	g.correctLastLine(receive, current, total)
	return give, receive, true
}

// mixedForMixed assembles the player side probabilistically (cash with
// probability ~0.6, one equity with probability ~0.7), then returns a
// random cash/equity split of equal value.
func (g *Generator) mixedForMixed(cash decimal.Decimal, owned []ownedStock, market []marketStock) (give, receive []model.OfferLine, ok bool) {
	minOffer := minCashOffer(cash)
	playerValue := decimal.Zero

	if cash.GreaterThanOrEqual(minOffer) && g.rng.Float64() > 0.4 {
		span := cash.Mul(maxCashShare).Mul(twoFifths).Sub(minOffer)
		amount := minOffer
		if span.IsPositive() {
			amount = minOffer.Add(span.Mul(decimal.NewFromFloat(g.rng.Float64())))
		}
		if ceiling := cash.Mul(twoFifths); amount.GreaterThan(ceiling) {
			amount = ceiling
		}
		amount = amount.Round(2)
		if amount.IsPositive() {
			give = append(give, model.CashLine(amount))
			playerValue = playerValue.Add(amount)
		}
	}

	if len(owned) > 0 && g.rng.Float64() > 0.3 {
		s := pick(g.rng, &owned)
		qty := portionQty(g.rng, s.held, 0.2, 0.5)
		give = append(give, model.StockLine(s.symbol, qty, s.price))
		playerValue = playerValue.Add(s.price.Mul(decimal.NewFromInt(qty)))
	}

	if len(give) == 0 || playerValue.LessThan(minSideValue) {
		return nil, nil, false
	}

	target := g.balance.ClampWithin(playerValue.Mul(g.balance.FairVariance(g.rng)), playerValue)

	// Random split between a cash line and a single counterpart equity;
	// sub-lines below the floor are dropped.
	cashPart := target.Mul(decimal.NewFromFloat(g.rng.Float64()))
	if cashPart.GreaterThanOrEqual(minSideValue) {
		receive = append(receive, model.CashLine(cashPart.Round(2)))
	}
	remaining := target.Sub(cashPart)
	if remaining.GreaterThanOrEqual(minSideValue) && len(market) > 0 {
		s := pick(g.rng, &market)
		qty := remaining.Div(s.price).IntPart()
		if qty < 1 {
			qty = 1
		}
		receive = append(receive, model.StockLine(s.symbol, qty, s.price))
	}
	if len(receive) == 0 {
		// Neither sub-line qualified: pure cash at the target value.
		receive = append(receive, model.CashLine(target.Round(2)))
	}

	return give, receive, true
}

// playerStockSide draws 1-2 owned equities without replacement, requesting
// 30-70% of each holding.
func (g *Generator) playerStockSide(owned []ownedStock) ([]model.OfferLine, decimal.Decimal) {
	lines := g.rng.IntN(2) + 1
	if lines > len(owned) {
		lines = len(owned)
	}

	var give []model.OfferLine
	total := decimal.Zero
	for i := 0; i < lines; i++ {
		s := pick(g.rng, &owned)
		qty := portionQty(g.rng, s.held, 0.3, 0.7)
		give = append(give, model.StockLine(s.symbol, qty, s.price))
		total = total.Add(s.price.Mul(decimal.NewFromInt(qty)))
	}
	return give, total
}

// correctLastLine nudges the quantity of the last counterpart line toward
// the target in whole units: adding units while under 90% of target,
// removing while over 110%. Never drops a line below one unit.
func (g *Generator) correctLastLine(receive []model.OfferLine, current, target decimal.Decimal) {
	if g.balance.Deviation(current, target).LessThanOrEqual(g.balance.Tolerance) {
		return
	}

	last := &receive[len(receive)-1]
	price := last.UnitPrice
	lowerBound := target.Mul(g.balance.lower())
	upperBound := target.Mul(g.balance.upper())

	switch {
	case current.LessThan(lowerBound):
		add := lowerBound.Sub(current).Div(price).Ceil().IntPart()
		last.Quantity += add
	case current.GreaterThan(upperBound) && last.Quantity > 1:
		remove := current.Sub(upperBound).Div(price).Ceil().IntPart()
		if max := last.Quantity - 1; remove > max {
			remove = max
		}
		last.Quantity -= remove
	}
}

// auditFairness logs imbalance past the hard ceiling. Breaches are never
// rejected: strict rejection would starve generation when price data is
// sparse.
func (g *Generator) auditFairness(tmpl Template, give, receive []model.OfferLine) {
	giveValue := Value(give)
	receiveValue := Value(receive)
	if giveValue.IsZero() || g.balance.WithinCeiling(receiveValue, giveValue) {
		return
	}

	metrics.FairnessBreaches.WithLabelValues(tmpl.String()).Inc()
	slog.Warn("trade offer imbalance beyond ceiling",
		"template", tmpl.String(),
		"give_value", giveValue.String(),
		"receive_value", receiveValue.String(),
		"ratio", receiveValue.Div(giveValue).Round(2).String(),
	)
}

// minCashOffer is the smallest cash request worth making: 10 currency units
// or 10% of the player's cash, whichever is smaller.
func minCashOffer(cash decimal.Decimal) decimal.Decimal {
	return decimal.Min(minSideValue, cash.Mul(tenPct))
}

// portionQty returns a whole-unit fraction of a holding in [lo, hi),
// never less than one unit.
func portionQty(rng *rand.Rand, held int64, lo, hi float64) int64 {
	frac := lo + rng.Float64()*(hi-lo)
	qty := int64(math.Floor(float64(held) * frac))
	if qty < 1 {
		qty = 1
	}
	return qty
}

// pick removes and returns a uniformly random element of *pool.
func pick[T any](rng *rand.Rand, pool *[]T) T {
	i := rng.IntN(len(*pool))
	s := (*pool)[i]
	*pool = append((*pool)[:i], (*pool)[i+1:]...)
	return s
}

// marketStocks builds the counterpart's candidate list from the price
// snapshot, sorted for deterministic draws under a seeded source.
func marketStocks(prices map[string]model.Quote) []marketStock {
	out := make([]marketStock, 0, len(prices))
	for sym, q := range prices {
		if q.CurrentPrice.IsPositive() {
			out = append(out, marketStock{symbol: sym, price: q.CurrentPrice})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].symbol < out[j].symbol })
	return out
}

// ownedStocks builds the player's candidate list. Holdings the feed cannot
// price fall back to a nominal price rather than being dropped.
func ownedStocks(p *model.Portfolio, prices map[string]model.Quote) []ownedStock {
	out := make([]ownedStock, 0, len(p.Holdings))
	for sym, qty := range p.Holdings {
		if qty <= 0 {
			continue
		}
		price := defaultPrice
		if q, ok := prices[sym]; ok && q.CurrentPrice.IsPositive() {
			price = q.CurrentPrice
		}
		out = append(out, ownedStock{symbol: sym, held: qty, price: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].symbol < out[j].symbol })
	return out
}
