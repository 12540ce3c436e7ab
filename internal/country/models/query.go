package models

import "strings"

// SortOrder selects the ordering of list results.
type SortOrder string

const (
	SortNameAsc        SortOrder = "name_asc"
	SortGDPAsc         SortOrder = "gdp_asc"
	SortGDPDesc        SortOrder = "gdp_desc"
	SortPopulationDesc SortOrder = "population_desc"
)

// ParseSortOrder maps a query value to a SortOrder. Unknown or empty values
// fall back to name_asc.
func ParseSortOrder(raw string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case SortGDPAsc:
		return SortGDPAsc
	case SortGDPDesc:
		return SortGDPDesc
	case SortPopulationDesc:
		return SortPopulationDesc
	default:
		return SortNameAsc
	}
}

// Filter narrows list results. Empty fields do not filter.
// CurrencyCode must already be upper-cased; Region is matched exactly.
type Filter struct {
	Region       string
	CurrencyCode string
}

// ListQuery is the raw query string of GET /countries.
type ListQuery struct {
	Region   string `validate:"omitempty,max=255"`
	Currency string `validate:"omitempty,alpha,max=10"`
	Sort     string `validate:"omitempty,max=32"`
}

// Normalize trims the query and produces the store filter and order.
func (q *ListQuery) Normalize() (Filter, SortOrder) {
	q.Region = strings.TrimSpace(q.Region)
	q.Currency = strings.ToUpper(strings.TrimSpace(q.Currency))
	return Filter{Region: q.Region, CurrencyCode: q.Currency}, ParseSortOrder(q.Sort)
}
