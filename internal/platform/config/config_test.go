package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSourceURLs(t *testing.T) {
	t.Helper()
	t.Setenv("COUNTRIES_API_URL", "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies")
	t.Setenv("EXCHANGE_RATE_API_URL", "https://open.er-api.com/v6/latest/USD")
}

func TestFromEnv(t *testing.T) {
	t.Run("source URLs are required", func(t *testing.T) {
		t.Setenv("COUNTRIES_API_URL", "")
		t.Setenv("EXCHANGE_RATE_API_URL", "")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CountriesURL")
	})

	t.Run("defaults and derived source names", func(t *testing.T) {
		setSourceURLs(t)
		t.Setenv("PORT", "8081")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("DB_HOST", "")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8081", cfg.Server.Addr)
		assert.Equal(t, "restcountries.com", cfg.Sources.CountriesName)
		assert.Equal(t, "open.er-api.com", cfg.Sources.RatesName)
		assert.Equal(t, 10*time.Second, cfg.Sources.Timeout)
		assert.Equal(t, defaultUpsertConcurrency, cfg.Refresh.UpsertConcurrency)
		assert.False(t, cfg.UsesPostgres())
		assert.Empty(t, cfg.Kafka.Brokers)
	})

	t.Run("discrete DB variables build a DSN", func(t *testing.T) {
		setSourceURLs(t)
		t.Setenv("DATABASE_URL", "")
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_USER", "app")
		t.Setenv("DB_PASSWORD", "p@ss")
		t.Setenv("DB_NAME", "countries")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.UsesPostgres())
		assert.Equal(t, "postgres://app:p%40ss@db:5432/countries?sslmode=disable", cfg.Database.DSN)
	})

	t.Run("kafka brokers are split", func(t *testing.T) {
		setSourceURLs(t)
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, "country.refreshed", cfg.Kafka.Topic)
	})

	t.Run("invalid log level is rejected", func(t *testing.T) {
		setSourceURLs(t)
		t.Setenv("LOG_LEVEL", "chatty")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
