package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/metrics"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/config"
)

const countriesBody = `[
  {"name":"Nigeria","capital":"Abuja","region":"Africa","population":206139589,
   "flag":"https://flagcdn.com/ng.svg","currencies":[{"code":"NGN","name":"Nigerian naira","symbol":"₦"}]},
  {"name":"Antarctica","region":"Polar","population":1000,"flag":"https://flagcdn.com/aq.svg"},
  {"name":"Nowhere","capital":"X"}
]`

const ratesBody = `{"result":"success","base_code":"USD","rates":{"USD":1,"NGN":1600.23,"GHS":15.3}}`

func newTestClient(t *testing.T, countries, rates http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	cs := httptest.NewServer(countries)
	t.Cleanup(cs.Close)
	rs := httptest.NewServer(rates)
	t.Cleanup(rs.Close)

	return New(config.Sources{
		CountriesURL:  cs.URL,
		RatesURL:      rs.URL,
		CountriesName: "restcountries.com",
		RatesName:     "open.er-api.com",
		Timeout:       2 * time.Second,
	}, opts...)
}

func body(status int, payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}
}

func TestFetchCountries(t *testing.T) {
	client := newTestClient(t, body(http.StatusOK, countriesBody), body(http.StatusOK, ratesBody))

	countries, err := client.FetchCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 3)

	assert.Equal(t, "Nigeria", countries[0].Name)
	require.NotNil(t, countries[0].Population)
	assert.Equal(t, int64(206139589), *countries[0].Population)
	assert.Equal(t, "NGN", countries[0].FirstCurrencyCode())

	assert.Empty(t, countries[1].FirstCurrencyCode())
	assert.Nil(t, countries[2].Population, "missing population stays distinguishable from zero")
}

func TestFetchExchangeRates(t *testing.T) {
	t.Run("extracts the nested rate table", func(t *testing.T) {
		client := newTestClient(t, body(http.StatusOK, countriesBody), body(http.StatusOK, ratesBody))

		rates, err := client.FetchExchangeRates(context.Background())
		require.NoError(t, err)
		rate, ok := rates.Lookup("NGN")
		require.True(t, ok)
		assert.True(t, rate.Equal(decimal.RequireFromString("1600.23")))
	})

	t.Run("missing rates object is bad data", func(t *testing.T) {
		client := newTestClient(t, body(http.StatusOK, countriesBody), body(http.StatusOK, `{"result":"success"}`))

		_, err := client.FetchExchangeRates(context.Background())
		require.Error(t, err)
		assert.Equal(t, ErrorBadData, GetCategory(err))
	})

	t.Run("error result is bad data", func(t *testing.T) {
		client := newTestClient(t, body(http.StatusOK, countriesBody), body(http.StatusOK, `{"result":"error","rates":{}}`))

		_, err := client.FetchExchangeRates(context.Background())
		assert.Equal(t, ErrorBadData, GetCategory(err))
	})
}

func TestErrorNormalization(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		client := newTestClient(t, body(http.StatusBadGateway, `oops`), body(http.StatusOK, ratesBody))

		_, err := client.FetchCountries(context.Background())
		se, ok := AsSourceError(err)
		require.True(t, ok)
		assert.Equal(t, ErrorBadStatus, se.Category)
		assert.Equal(t, http.StatusBadGateway, se.StatusCode)
		assert.Equal(t, "restcountries.com", se.Source)
		assert.Equal(t, "Could not fetch data from restcountries.com", se.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		client := newTestClient(t, body(http.StatusOK, `{not json`), body(http.StatusOK, ratesBody))

		_, err := client.FetchCountries(context.Background())
		assert.Equal(t, ErrorBadData, GetCategory(err))
	})

	t.Run("timeout", func(t *testing.T) {
		slow := func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}
		client := newTestClient(t, slow, body(http.StatusOK, ratesBody), WithTimeout(50*time.Millisecond))

		_, err := client.FetchCountries(context.Background())
		assert.Equal(t, ErrorTimeout, GetCategory(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		client := New(config.Sources{
			CountriesURL:  "http://127.0.0.1:1",
			RatesURL:      "http://127.0.0.1:1",
			CountriesName: "restcountries.com",
			RatesName:     "open.er-api.com",
			Timeout:       time.Second,
		})

		_, err := client.FetchExchangeRates(context.Background())
		se, ok := AsSourceError(err)
		require.True(t, ok)
		assert.Equal(t, "open.er-api.com", se.Source)
		assert.Contains(t, []ErrorCategory{ErrorTransport, ErrorTimeout}, se.Category)
	})

	t.Run("unknown errors categorize as internal", func(t *testing.T) {
		assert.Equal(t, ErrorInternal, GetCategory(assert.AnError))
	})
}

func TestFetch(t *testing.T) {
	t.Run("returns both datasets", func(t *testing.T) {
		client := newTestClient(t, body(http.StatusOK, countriesBody), body(http.StatusOK, ratesBody),
			WithMetrics(metrics.New(prometheus.NewRegistry())))

		snapshot, err := client.Fetch(context.Background())
		require.NoError(t, err)
		assert.Len(t, snapshot.Countries, 3)
		assert.Len(t, snapshot.Rates, 3)
	})

	t.Run("rate failure fails the whole fetch", func(t *testing.T) {
		var countryCalls atomic.Int32
		countries := func(w http.ResponseWriter, r *http.Request) {
			countryCalls.Add(1)
			body(http.StatusOK, countriesBody)(w, r)
		}
		client := newTestClient(t, countries, body(http.StatusInternalServerError, `{}`))

		snapshot, err := client.Fetch(context.Background())
		require.Error(t, err)
		assert.Nil(t, snapshot)
		se, ok := AsSourceError(err)
		require.True(t, ok)
		assert.Equal(t, "open.er-api.com", se.Source)
	})
}
