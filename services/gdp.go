// services/gdp.go
package services

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

const (
	minGdpMultiplier = 1000
	maxGdpMultiplier = 2000
)

// RandomSource yields integers in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	Int64N(n int64) int64
}

// globalSource uses the top-level math/rand/v2 generator, which is safe for
// concurrent use.
type globalSource struct{}

func (globalSource) Int64N(n int64) int64 { return rand.Int64N(n) }

// GdpEstimator derives the rough GDP figure stored with each country.
type GdpEstimator struct {
	rng RandomSource
}

// NewGdpEstimator returns an estimator drawing from rng, or from the global
// generator when rng is nil.
func NewGdpEstimator(rng RandomSource) *GdpEstimator {
	if rng == nil {
		rng = globalSource{}
	}
	return &GdpEstimator{rng: rng}
}

// Estimate returns population × m ÷ rate rounded to cents, with m drawn
// uniformly from [1000, 2000]. A missing or non-positive rate yields 0.
func (e *GdpEstimator) Estimate(population int64, rate decimal.NullDecimal) decimal.Decimal {
	if !rate.Valid || !rate.Decimal.IsPositive() {
		return decimal.Zero
	}
	m := minGdpMultiplier + e.rng.Int64N(maxGdpMultiplier-minGdpMultiplier+1)
	return decimal.NewFromInt(population).
		Mul(decimal.NewFromInt(m)).
		DivRound(rate.Decimal, 2)
}
