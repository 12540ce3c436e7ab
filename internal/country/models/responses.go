package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CountryResponse is the JSON shape of a country. Absent optional values are
// rendered as null.
type CountryResponse struct {
	Name            string   `json:"name"`
	Capital         *string  `json:"capital"`
	Region          *string  `json:"region"`
	Population      int64    `json:"population"`
	CurrencyCode    *string  `json:"currency_code"`
	ExchangeRate    *float64 `json:"exchange_rate"`
	EstimatedGDP    *float64 `json:"estimated_gdp"`
	FlagURL         *string  `json:"flag_url"`
	LastRefreshedAt string   `json:"last_refreshed_at"`
}

// ToResponse converts a Country for transport.
func ToResponse(c *Country) CountryResponse {
	return CountryResponse{
		Name:            c.Name,
		Capital:         optionalString(c.Capital),
		Region:          optionalString(c.Region),
		Population:      c.Population,
		CurrencyCode:    optionalString(c.CurrencyCode),
		ExchangeRate:    optionalFloat(c.ExchangeRate),
		EstimatedGDP:    optionalFloat(c.EstimatedGDP),
		FlagURL:         optionalString(c.FlagURL),
		LastRefreshedAt: c.LastRefreshedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponses converts a list for transport, never returning nil.
func ToResponses(countries []*Country) []CountryResponse {
	out := make([]CountryResponse, 0, len(countries))
	for _, c := range countries {
		out = append(out, ToResponse(c))
	}
	return out
}

// StatusResponse is the JSON shape of GET /countries/status.
type StatusResponse struct {
	TotalCountries  int     `json:"total_countries"`
	LastRefreshedAt *string `json:"last_refreshed_at"`
}

// ToStatusResponse converts a Status for transport.
func ToStatusResponse(s Status) StatusResponse {
	resp := StatusResponse{TotalCountries: s.TotalCountries}
	if s.LastRefreshedAt != nil {
		ts := s.LastRefreshedAt.UTC().Format(time.RFC3339)
		resp.LastRefreshedAt = &ts
	}
	return resp
}

// RefreshResponse is the JSON shape of POST /countries/refresh.
type RefreshResponse struct {
	Message            string `json:"message"`
	CountriesProcessed int    `json:"countries_processed"`
	Skipped            int    `json:"skipped"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
