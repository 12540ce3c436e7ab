package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/domain-errors"
)

// Country is the persisted aggregate, keyed by Name.
//
// Invariants:
//   - Name is non-empty
//   - Population is non-negative
//   - ExchangeRate and EstimatedGDP are both valid or both NULL; they are
//     valid only when CurrencyCode was found in the rate table of the refresh
//     that wrote the row
//   - LastRefreshedAt is assigned by the store on every write
//
// Optional text fields use the empty string for "absent".
type Country struct {
	Name            string
	Capital         string
	Region          string
	Population      int64
	CurrencyCode    string
	ExchangeRate    decimal.NullDecimal
	EstimatedGDP    decimal.NullDecimal
	FlagURL         string
	LastRefreshedAt time.Time
}

// NewCountry validates the invariants that do not depend on the rate table.
func NewCountry(name, capital, region string, population int64, currencyCode, flagURL string) (*Country, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "country name cannot be empty")
	}
	if population < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "population cannot be negative")
	}
	return &Country{
		Name:         name,
		Capital:      strings.TrimSpace(capital),
		Region:       strings.TrimSpace(region),
		Population:   population,
		CurrencyCode: strings.ToUpper(strings.TrimSpace(currencyCode)),
		FlagURL:      strings.TrimSpace(flagURL),
	}, nil
}

// ApplyEstimate sets the rate-derived fields together so they cannot diverge.
// A NULL rate always clears the estimate.
func (c *Country) ApplyEstimate(rate, estimate decimal.NullDecimal) {
	if !rate.Valid || !estimate.Valid {
		c.ExchangeRate = decimal.NullDecimal{}
		c.EstimatedGDP = decimal.NullDecimal{}
		return
	}
	c.ExchangeRate = rate
	c.EstimatedGDP = estimate
}

// TopCountry is one line of the summary leaderboard.
type TopCountry struct {
	Name         string
	EstimatedGDP decimal.NullDecimal
}

// Status aggregates the table for the status endpoint and the summary image.
// LastRefreshedAt is nil when the table is empty.
type Status struct {
	TotalCountries  int
	LastRefreshedAt *time.Time
}

// RefreshResult reports one refresh cycle.
type RefreshResult struct {
	Processed       int
	Skipped         int
	Status          Status
	ArtifactWritten bool
}
