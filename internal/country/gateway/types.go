package gateway

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RawCountry is one record of the countries dataset. Population is a pointer
// so a missing value can be told apart from zero.
type RawCountry struct {
	Name       string        `json:"name"`
	Capital    string        `json:"capital"`
	Region     string        `json:"region"`
	Population *int64        `json:"population"`
	Flag       string        `json:"flag"`
	Currencies []RawCurrency `json:"currencies"`
}

// RawCurrency is one entry of RawCountry.Currencies.
type RawCurrency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// FirstCurrencyCode returns the code of the first listed currency, or "".
func (c RawCountry) FirstCurrencyCode() string {
	if len(c.Currencies) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(c.Currencies[0].Code))
}

// RateTable maps a currency code to its rate against the source's base
// currency. It is built fresh for every refresh and never persisted.
type RateTable map[string]decimal.Decimal

// Lookup returns the rate for code.
func (t RateTable) Lookup(code string) (decimal.Decimal, bool) {
	rate, ok := t[code]
	return rate, ok
}

// ratesEnvelope is the response body of the exchange-rate source.
type ratesEnvelope struct {
	Result   string    `json:"result"`
	BaseCode string    `json:"base_code"`
	Rates    RateTable `json:"rates"`
}

// Snapshot is the combined result of one fetch step.
type Snapshot struct {
	Countries []RawCountry
	Rates     RateTable
}
