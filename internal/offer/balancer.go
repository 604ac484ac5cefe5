package offer

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// Balancer is the fairness policy shared by every offer template: a target
// tolerance band the two sides of a trade are pulled into, and a hard
// ceiling beyond which imbalance is reported but never corrected.
type Balancer struct {
	// Tolerance is the relative band a proposed value is clamped into
	// around its target.
	Tolerance decimal.Decimal

	// Ceiling is the relative imbalance past which a generated offer is
	// flagged as a fairness breach. Breaches are observability events only;
	// the offer stays usable.
	Ceiling decimal.Decimal
}

// NewBalancer returns the standard policy: 10% tolerance, 15% ceiling.
func NewBalancer() Balancer {
	return Balancer{
		Tolerance: decimal.NewFromFloat(0.10),
		Ceiling:   decimal.NewFromFloat(0.15),
	}
}

// FairVariance returns a multiplier drawn from [0.95, 1.10): a slight
// counterpart-favoring skew so trades stay engaging without being
// exploitable.
func (b Balancer) FairVariance(rng *rand.Rand) decimal.Decimal {
	return decimal.NewFromFloat(1 + rng.Float64()*0.15 - 0.05)
}

// SymmetricVariance returns a multiplier drawn from [1-band, 1+band).
func (b Balancer) SymmetricVariance(rng *rand.Rand, band float64) decimal.Decimal {
	return decimal.NewFromFloat(1 + rng.Float64()*2*band - band)
}

// ClampWithin pulls value into the tolerance band around target.
func (b Balancer) ClampWithin(value, target decimal.Decimal) decimal.Decimal {
	min := target.Mul(b.lower())
	max := target.Mul(b.upper())
	return decimal.Max(min, decimal.Min(max, value))
}

// Deviation returns |value - target| / target.
func (b Balancer) Deviation(value, target decimal.Decimal) decimal.Decimal {
	return value.Sub(target).Abs().Div(target)
}

// WithinCeiling reports whether value deviates from target by at most the
// hard ceiling.
func (b Balancer) WithinCeiling(value, target decimal.Decimal) bool {
	return b.Deviation(value, target).LessThanOrEqual(b.Ceiling)
}

func (b Balancer) lower() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(b.Tolerance)
}

func (b Balancer) upper() decimal.Decimal {
	return decimal.NewFromInt(1).Add(b.Tolerance)
}
