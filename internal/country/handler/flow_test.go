package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/estimator"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/gateway"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/handler"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/refresh"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/service"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/store"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/summary"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/config"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/testutil"
)

const upstreamCountries = `[
  {"name":"Nigeria","capital":"Abuja","region":"Africa","population":206139589,"flag":"https://flagcdn.com/ng.svg","currencies":[{"code":"NGN"}]},
  {"name":"Ghana","capital":"Accra","region":"Africa","population":31072940,"flag":"https://flagcdn.com/gh.svg","currencies":[{"code":"GHS"}]},
  {"name":"Antarctica","region":"Polar","population":1000,"flag":"https://flagcdn.com/aq.svg"},
  {"name":"Ghost","capital":"Nowhere"}
]`

const upstreamRates = `{"result":"success","base_code":"USD","rates":{"USD":1,"NGN":1600.23,"GHS":15.3}}`

func newApp(t *testing.T, countriesStatus, ratesStatus int) (http.Handler, *store.InMemoryStore, *summary.Generator) {
	t.Helper()
	countries, _ := testutil.NewJSONServer(t, countriesStatus, upstreamCountries)
	rates, _ := testutil.NewJSONServer(t, ratesStatus, upstreamRates)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client := gateway.New(config.Sources{
		CountriesURL:  countries.URL,
		RatesURL:      rates.URL,
		CountriesName: "restcountries.com",
		RatesName:     "open.er-api.com",
		Timeout:       2 * time.Second,
	})
	st := store.NewInMemory()
	gen := summary.New(filepath.Join(t.TempDir(), "cache"), logger)
	refresher := refresh.New(client, st, estimator.New(nil), gen, refresh.WithLogger(logger))
	query := service.New(st, gen, service.WithLogger(logger))

	h := handler.New(query, refresher, logger)
	return handler.NewRouter(h, logger, handler.RouterConfig{AllowedOrigins: []string{"*"}}), st, gen
}

func TestRefreshAndQueryFlow(t *testing.T) {
	app, _, gen := newApp(t, http.StatusOK, http.StatusOK)

	testutil.Given(t, "no refresh has run", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/countries/image"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "Summary image not found")

		rr = testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/countries/status"))
		assert.JSONEq(t, `{"total_countries":0,"last_refreshed_at":null}`, rr.Body.String())
	})

	testutil.When(t, "a refresh succeeds", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodPost, "/countries/refresh"))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := testutil.UnmarshalResponse[models.RefreshResponse](t, rr)
		assert.Equal(t, 3, resp.CountriesProcessed)
		assert.Equal(t, 1, resp.Skipped)
	})

	testutil.Then(t, "countries are queryable", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/countries?region=Africa&sort=gdp_desc"))
		require.Equal(t, http.StatusOK, rr.Code)
		list := testutil.UnmarshalResponse[[]models.CountryResponse](t, rr)
		require.Len(t, *list, 2)
		for _, c := range *list {
			require.NotNil(t, c.EstimatedGDP)
		}
		assert.GreaterOrEqual(t, *(*list)[0].EstimatedGDP, *(*list)[1].EstimatedGDP)

		rr = testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/countries/Antarctica"))
		require.Equal(t, http.StatusOK, rr.Code)
		antarctica := testutil.UnmarshalResponse[models.CountryResponse](t, rr)
		assert.Nil(t, antarctica.CurrencyCode)
		assert.Nil(t, antarctica.EstimatedGDP)

		rr = testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/countries/status"))
		status := testutil.UnmarshalResponse[models.StatusResponse](t, rr)
		assert.Equal(t, 3, status.TotalCountries)
		assert.NotNil(t, status.LastRefreshedAt)

		assert.True(t, gen.Exists())
		rr = testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/countries/image"))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	})

	testutil.Then(t, "a deleted country is gone", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodDelete, "/countries/Ghana"))
		require.Equal(t, http.StatusNoContent, rr.Code)

		rr = testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/countries/Ghana"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "Country not found")

		rr = testutil.DoRequest(app, testutil.NewRequest(t, http.MethodDelete, "/countries/Ghana"))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRefreshWithFailingRateSource(t *testing.T) {
	app, st, gen := newApp(t, http.StatusOK, http.StatusBadGateway)

	rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodPost, "/countries/refresh"))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := testutil.UnmarshalErrorResponse(t, rr)
	assert.Equal(t, "External data source unavailable", body["error"])
	assert.Equal(t, "Could not fetch data from open.er-api.com", body["details"])

	all, err := st.FindAll(t.Context(), models.Filter{}, models.SortNameAsc)
	require.NoError(t, err)
	assert.Empty(t, all, "nothing is written when a source fails")
	assert.False(t, gen.Exists())
}
