package offer

import (
	"github.com/shopspring/decimal"

	"github.com/stocksim/trade-engine/internal/model"
)

// Value returns the total monetary value of a set of offer lines.
// Pure function; malformed lines are a precondition violation, not a
// runtime condition to recover from.
func Value(lines []model.OfferLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Value())
	}
	return total
}
