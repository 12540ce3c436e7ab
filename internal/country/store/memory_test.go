package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.now = time.Date(2025, 10, 22, 18, 0, 0, 0, time.UTC)
	s.store = NewInMemory(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func newCountry(name, region, currency string, population int64, gdp string) *models.Country {
	c := &models.Country{
		Name:         name,
		Region:       region,
		Population:   population,
		CurrencyCode: currency,
	}
	if gdp != "" {
		c.ApplyEstimate(
			decimal.NewNullDecimal(decimal.NewFromInt(1)),
			decimal.NewNullDecimal(decimal.RequireFromString(gdp)),
		)
	}
	return c
}

func (s *InMemoryStoreSuite) seed(countries ...*models.Country) {
	for _, c := range countries {
		s.Require().NoError(s.store.Upsert(s.ctx, c))
	}
}

func (s *InMemoryStoreSuite) names(countries []*models.Country) []string {
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		out = append(out, c.Name)
	}
	return out
}

func (s *InMemoryStoreSuite) TestUpsert() {
	s.Run("overwrites by name and restamps", func() {
		s.seed(newCountry("Ghana", "Africa", "GHS", 100, "10"))

		s.now = s.now.Add(time.Hour)
		s.seed(newCountry("Ghana", "Africa", "", 200, ""))

		found, err := s.store.FindByName(s.ctx, "Ghana")
		s.Require().NoError(err)
		s.Equal(int64(200), found.Population)
		s.Empty(found.CurrencyCode)
		s.False(found.EstimatedGDP.Valid, "no field-level merge")
		s.Equal(s.now, found.LastRefreshedAt)

		status, err := s.store.Status(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, status.TotalCountries)
	})

	s.Run("rejects nil", func() {
		s.Error(s.store.Upsert(s.ctx, nil))
	})
}

func (s *InMemoryStoreSuite) TestFindByName() {
	s.seed(newCountry("Nigeria", "Africa", "NGN", 1, "1"))

	_, err := s.store.FindByName(s.ctx, "nigeria")
	s.ErrorIs(err, sentinel.ErrNotFound, "lookups are case-sensitive")

	_, err = s.store.FindByName(s.ctx, "Atlantis")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindAll() {
	s.seed(
		newCountry("Nigeria", "Africa", "NGN", 200, "300"),
		newCountry("Ghana", "Africa", "GHS", 30, "900"),
		newCountry("Antarctica", "Polar", "", 10, ""),
		newCountry("France", "Europe", "EUR", 67, "900"),
	)

	s.Run("default sort is by name", func() {
		all, err := s.store.FindAll(s.ctx, models.Filter{}, models.SortNameAsc)
		s.Require().NoError(err)
		s.Equal([]string{"Antarctica", "France", "Ghana", "Nigeria"}, s.names(all))
	})

	s.Run("gdp_desc puts null estimates last and breaks ties by name", func() {
		all, err := s.store.FindAll(s.ctx, models.Filter{}, models.SortGDPDesc)
		s.Require().NoError(err)
		s.Equal([]string{"France", "Ghana", "Nigeria", "Antarctica"}, s.names(all))
	})

	s.Run("gdp_asc also puts null estimates last", func() {
		all, err := s.store.FindAll(s.ctx, models.Filter{}, models.SortGDPAsc)
		s.Require().NoError(err)
		s.Equal([]string{"Nigeria", "France", "Ghana", "Antarctica"}, s.names(all))
	})

	s.Run("population_desc", func() {
		all, err := s.store.FindAll(s.ctx, models.Filter{}, models.SortPopulationDesc)
		s.Require().NoError(err)
		s.Equal([]string{"Nigeria", "France", "Ghana", "Antarctica"}, s.names(all))
	})

	s.Run("filters by region and currency", func() {
		africa, err := s.store.FindAll(s.ctx, models.Filter{Region: "Africa"}, models.SortNameAsc)
		s.Require().NoError(err)
		s.Equal([]string{"Ghana", "Nigeria"}, s.names(africa))

		ngn, err := s.store.FindAll(s.ctx, models.Filter{Region: "Africa", CurrencyCode: "NGN"}, models.SortNameAsc)
		s.Require().NoError(err)
		s.Equal([]string{"Nigeria"}, s.names(ngn))

		none, err := s.store.FindAll(s.ctx, models.Filter{Region: "Oceania"}, models.SortNameAsc)
		s.Require().NoError(err)
		s.NotNil(none)
		s.Empty(none)
	})

	s.Run("returned rows are copies", func() {
		all, err := s.store.FindAll(s.ctx, models.Filter{}, models.SortNameAsc)
		s.Require().NoError(err)
		all[0].Population = -1

		found, err := s.store.FindByName(s.ctx, "Antarctica")
		s.Require().NoError(err)
		s.Equal(int64(10), found.Population)
	})
}

func (s *InMemoryStoreSuite) TestDeleteByName() {
	s.seed(newCountry("Ghana", "Africa", "GHS", 30, "900"))

	deleted, err := s.store.DeleteByName(s.ctx, "Ghana")
	s.Require().NoError(err)
	s.True(deleted)

	_, err = s.store.FindByName(s.ctx, "Ghana")
	s.ErrorIs(err, sentinel.ErrNotFound)

	deleted, err = s.store.DeleteByName(s.ctx, "Ghana")
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *InMemoryStoreSuite) TestStatusAndTop() {
	s.Run("empty table", func() {
		status, err := s.store.Status(s.ctx)
		s.Require().NoError(err)
		s.Equal(0, status.TotalCountries)
		s.Nil(status.LastRefreshedAt)

		top, err := s.store.TopByEstimate(s.ctx, 5)
		s.Require().NoError(err)
		s.Empty(top)
	})

	s.Run("latest timestamp and top estimates", func() {
		s.seed(newCountry("A", "", "", 1, "1"), newCountry("B", "", "", 1, "5"))
		s.now = s.now.Add(time.Minute)
		s.seed(newCountry("C", "", "", 1, ""), newCountry("D", "", "", 1, "3"))

		status, err := s.store.Status(s.ctx)
		s.Require().NoError(err)
		s.Equal(4, status.TotalCountries)
		s.Require().NotNil(status.LastRefreshedAt)
		s.Equal(s.now, *status.LastRefreshedAt)

		top, err := s.store.TopByEstimate(s.ctx, 3)
		s.Require().NoError(err)
		s.Require().Len(top, 3)
		s.Equal("B", top[0].Name)
		s.Equal("D", top[1].Name)
		s.Equal("A", top[2].Name)
	})
}
