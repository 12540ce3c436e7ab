// Package estimator derives the per-country GDP estimate from population,
// the country's exchange rate and a random multiplier.
package estimator

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/gateway"
)

const (
	MinMultiplier int64 = 1000
	MaxMultiplier int64 = 2000

	// RateScale is the number of decimal places kept for an exchange rate.
	// It matches the exchange_rate column so the stored rate is the divisor.
	RateScale int32 = 6
)

// MultiplierSource yields the multiplier for a single estimate.
type MultiplierSource func() int64

// UniformMultiplier draws uniformly from [MinMultiplier, MaxMultiplier].
func UniformMultiplier() int64 {
	return MinMultiplier + rand.Int64N(MaxMultiplier-MinMultiplier+1)
}

// FixedMultiplier always returns m.
func FixedMultiplier(m int64) MultiplierSource {
	return func() int64 { return m }
}

// Estimator computes population * multiplier / rate. Two refreshes over
// identical inputs produce different estimates unless the source is fixed.
type Estimator struct {
	multiplier MultiplierSource
}

// New creates an Estimator. A nil source selects UniformMultiplier.
func New(source MultiplierSource) *Estimator {
	if source == nil {
		source = UniformMultiplier
	}
	return &Estimator{multiplier: source}
}

// Resolve looks up the rate for a currency code, rounded to RateScale places.
// Empty codes, unknown codes and rates that are not positive after rounding
// resolve to NULL.
func Resolve(currencyCode string, rates gateway.RateTable) decimal.NullDecimal {
	if currencyCode == "" {
		return decimal.NullDecimal{}
	}
	rate, ok := rates.Lookup(currencyCode)
	if !ok {
		return decimal.NullDecimal{}
	}
	rate = rate.Round(RateScale)
	if !rate.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(rate)
}

// Estimate returns population * multiplier / rate, or NULL when rate is NULL
// or not positive.
func (e *Estimator) Estimate(population int64, rate decimal.NullDecimal) decimal.NullDecimal {
	if !rate.Valid || !rate.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}
	m := e.multiplier()
	product := decimal.NewFromInt(population).Mul(decimal.NewFromInt(m))
	return decimal.NewNullDecimal(product.DivRound(rate.Decimal, 2))
}

// EstimateFor resolves the rate for currencyCode and estimates in one step.
func (e *Estimator) EstimateFor(population int64, currencyCode string, rates gateway.RateTable) (rate, estimate decimal.NullDecimal) {
	rate = Resolve(currencyCode, rates)
	return rate, e.Estimate(population, rate)
}
