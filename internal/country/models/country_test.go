package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/domain-errors"
)

func TestNewCountry(t *testing.T) {
	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCountry("  ", "", "", 10, "", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects negative population", func(t *testing.T) {
		_, err := NewCountry("Nigeria", "", "", -1, "", "")
		require.Error(t, err)
	})

	t.Run("normalizes currency code", func(t *testing.T) {
		c, err := NewCountry(" Nigeria ", "Abuja", "Africa", 206139589, " ngn ", "https://flagcdn.com/ng.svg")
		require.NoError(t, err)
		assert.Equal(t, "Nigeria", c.Name)
		assert.Equal(t, "NGN", c.CurrencyCode)
	})
}

func TestApplyEstimateKeepsFieldsTogether(t *testing.T) {
	c := &Country{Name: "Ghana"}
	c.ApplyEstimate(decimal.NewNullDecimal(decimal.NewFromFloat(15.3)), decimal.NullDecimal{})
	assert.False(t, c.ExchangeRate.Valid)
	assert.False(t, c.EstimatedGDP.Valid)

	c.ApplyEstimate(decimal.NewNullDecimal(decimal.NewFromInt(2)), decimal.NewNullDecimal(decimal.NewFromInt(100)))
	assert.True(t, c.ExchangeRate.Valid)
	assert.True(t, c.EstimatedGDP.Valid)
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortGDPDesc, ParseSortOrder("gdp_desc"))
	assert.Equal(t, SortGDPAsc, ParseSortOrder(" GDP_ASC "))
	assert.Equal(t, SortPopulationDesc, ParseSortOrder("population_desc"))
	assert.Equal(t, SortNameAsc, ParseSortOrder(""))
	assert.Equal(t, SortNameAsc, ParseSortOrder("area_desc"))
}

func TestListQueryNormalize(t *testing.T) {
	q := ListQuery{Region: " Africa ", Currency: "ngn", Sort: "gdp_desc"}
	filter, order := q.Normalize()
	assert.Equal(t, Filter{Region: "Africa", CurrencyCode: "NGN"}, filter)
	assert.Equal(t, SortGDPDesc, order)
}

func TestToResponseRendersNulls(t *testing.T) {
	refreshed := time.Date(2025, 10, 22, 18, 0, 0, 0, time.UTC)
	resp := ToResponse(&Country{Name: "Antarctica", Population: 1000, LastRefreshedAt: refreshed})

	assert.Nil(t, resp.Capital)
	assert.Nil(t, resp.CurrencyCode)
	assert.Nil(t, resp.ExchangeRate)
	assert.Nil(t, resp.EstimatedGDP)
	assert.Equal(t, "2025-10-22T18:00:00Z", resp.LastRefreshedAt)

	status := ToStatusResponse(Status{})
	assert.Nil(t, status.LastRefreshedAt)
}
