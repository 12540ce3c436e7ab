//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/estimator"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/gateway"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/store"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/sentinel"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	mu       sync.Mutex
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB, store.WithClock(s.clock))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.now = time.Date(2025, 10, 22, 18, 0, 0, 0, time.UTC)
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "countries"))
}

func (s *PostgresStoreSuite) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *PostgresStoreSuite) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func country(name, region, currency string, population int64, rate, gdp string) *models.Country {
	c := &models.Country{
		Name:         name,
		Capital:      name + " City",
		Region:       region,
		Population:   population,
		CurrencyCode: currency,
		FlagURL:      "https://flagcdn.com/" + name + ".svg",
	}
	if rate != "" {
		c.ApplyEstimate(
			decimal.NewNullDecimal(decimal.RequireFromString(rate)),
			decimal.NewNullDecimal(decimal.RequireFromString(gdp)),
		)
	}
	return c
}

func (s *PostgresStoreSuite) TestMigrateIsIdempotent() {
	s.Require().NoError(store.Migrate(context.Background(), s.postgres.DB))
}

func (s *PostgresStoreSuite) TestUpsertRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, country("Nigeria", "Africa", "NGN", 206139589, "1600.23", "193235014.55")))

	found, err := s.store.FindByName(ctx, "Nigeria")
	s.Require().NoError(err)
	s.Equal("Nigeria City", found.Capital)
	s.Equal("NGN", found.CurrencyCode)
	s.True(found.ExchangeRate.Decimal.Equal(decimal.RequireFromString("1600.23")))
	s.True(found.EstimatedGDP.Decimal.Equal(decimal.RequireFromString("193235014.55")))
	s.Equal(s.now, found.LastRefreshedAt)

	s.Run("second upsert overwrites every field and advances the timestamp", func() {
		s.advance(time.Hour)
		s.Require().NoError(s.store.Upsert(ctx, &models.Country{Name: "Nigeria", Population: 1}))

		found, err := s.store.FindByName(ctx, "Nigeria")
		s.Require().NoError(err)
		s.Empty(found.Capital)
		s.Empty(found.CurrencyCode)
		s.False(found.ExchangeRate.Valid)
		s.False(found.EstimatedGDP.Valid)
		s.Equal(s.now, found.LastRefreshedAt)

		status, err := s.store.Status(ctx)
		s.Require().NoError(err)
		s.Equal(1, status.TotalCountries)
	})
}

func (s *PostgresStoreSuite) TestStoredRateIsTheDivisor() {
	ctx := context.Background()
	rates := gateway.RateTable{"NGN": decimal.RequireFromString("1600.23456789")}
	const population, multiplier = int64(206139589), int64(1500)

	rate := estimator.Resolve("NGN", rates)
	gdp := estimator.New(estimator.FixedMultiplier(multiplier)).Estimate(population, rate)
	c := &models.Country{Name: "Nigeria", Population: population, CurrencyCode: "NGN"}
	c.ApplyEstimate(rate, gdp)
	s.Require().NoError(s.store.Upsert(ctx, c))

	found, err := s.store.FindByName(ctx, "Nigeria")
	s.Require().NoError(err)
	s.True(found.ExchangeRate.Decimal.Equal(rate.Decimal), "stored rate %s", found.ExchangeRate.Decimal)
	want := decimal.NewFromInt(population*multiplier).DivRound(found.ExchangeRate.Decimal, 2)
	s.True(found.EstimatedGDP.Decimal.Equal(want), "stored estimate %s want %s", found.EstimatedGDP.Decimal, want)
}

func (s *PostgresStoreSuite) TestFindAllOrdering() {
	ctx := context.Background()
	for _, c := range []*models.Country{
		country("Nigeria", "Africa", "NGN", 200, "1", "300"),
		country("Ghana", "Africa", "GHS", 30, "1", "900"),
		country("Antarctica", "Polar", "", 10, "", ""),
		country("France", "Europe", "EUR", 67, "1", "900"),
	} {
		s.Require().NoError(s.store.Upsert(ctx, c))
	}

	names := func(cs []*models.Country) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}

	desc, err := s.store.FindAll(ctx, models.Filter{}, models.SortGDPDesc)
	s.Require().NoError(err)
	s.Equal([]string{"France", "Ghana", "Nigeria", "Antarctica"}, names(desc))

	asc, err := s.store.FindAll(ctx, models.Filter{}, models.SortGDPAsc)
	s.Require().NoError(err)
	s.Equal([]string{"Nigeria", "France", "Ghana", "Antarctica"}, names(asc))

	africa, err := s.store.FindAll(ctx, models.Filter{Region: "Africa", CurrencyCode: "GHS"}, models.SortNameAsc)
	s.Require().NoError(err)
	s.Equal([]string{"Ghana"}, names(africa))

	top, err := s.store.TopByEstimate(ctx, 5)
	s.Require().NoError(err)
	s.Require().Len(top, 4)
	s.Equal("France", top[0].Name)
	s.False(top[3].EstimatedGDP.Valid)
}

func (s *PostgresStoreSuite) TestDeleteAndStatus() {
	ctx := context.Background()

	status, err := s.store.Status(ctx)
	s.Require().NoError(err)
	s.Equal(0, status.TotalCountries)
	s.Nil(status.LastRefreshedAt)

	s.Require().NoError(s.store.Upsert(ctx, country("Ghana", "Africa", "GHS", 30, "15.3", "2000")))

	deleted, err := s.store.DeleteByName(ctx, "Ghana")
	s.Require().NoError(err)
	s.True(deleted)

	_, err = s.store.FindByName(ctx, "Ghana")
	s.ErrorIs(err, sentinel.ErrNotFound)

	deleted, err = s.store.DeleteByName(ctx, "Ghana")
	s.Require().NoError(err)
	s.False(deleted)
}
