package store

import (
	"sort"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
)

// orderByClause returns the SQL ORDER BY for a sort order. NULL estimates
// sort last in both directions and ties fall back to name.
func orderByClause(order models.SortOrder) string {
	switch order {
	case models.SortGDPAsc:
		return "estimated_gdp ASC NULLS LAST, name ASC"
	case models.SortGDPDesc:
		return "estimated_gdp DESC NULLS LAST, name ASC"
	case models.SortPopulationDesc:
		return "population DESC, name ASC"
	default:
		return "name ASC"
	}
}

// sortCountries applies the same ordering as orderByClause in memory.
func sortCountries(countries []*models.Country, order models.SortOrder) {
	sort.SliceStable(countries, func(i, j int) bool {
		a, b := countries[i], countries[j]
		switch order {
		case models.SortGDPAsc, models.SortGDPDesc:
			if a.EstimatedGDP.Valid != b.EstimatedGDP.Valid {
				return a.EstimatedGDP.Valid
			}
			if a.EstimatedGDP.Valid {
				if cmp := a.EstimatedGDP.Decimal.Cmp(b.EstimatedGDP.Decimal); cmp != 0 {
					if order == models.SortGDPDesc {
						return cmp > 0
					}
					return cmp < 0
				}
			}
		case models.SortPopulationDesc:
			if a.Population != b.Population {
				return a.Population > b.Population
			}
		}
		return a.Name < b.Name
	})
}
