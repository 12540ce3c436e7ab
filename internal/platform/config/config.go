package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	platformstrings "github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/strings"
)

// Config is built once at process start and passed to every component that
// needs it. Nothing reads the environment after FromEnv returns.
type Config struct {
	Server   Server
	Sources  Sources
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Summary  SummaryConfig
	Refresh  RefreshConfig
	LogLevel string `validate:"omitempty,oneof=debug info warn error"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string `validate:"required"`
	AllowedOrigins []string
	RequestTimeout time.Duration `validate:"gt=0"`
}

// Sources points at the two upstream datasets. There are no defaults for the
// URLs; a deployment must name them.
type Sources struct {
	CountriesURL  string        `validate:"required,url"`
	RatesURL      string        `validate:"required,url"`
	CountriesName string        `validate:"required"`
	RatesName     string        `validate:"required"`
	Timeout       time.Duration `validate:"gt=0"`
}

// DatabaseConfig configures the PostgreSQL pool. An empty DSN selects the
// in-memory store.
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int `validate:"gte=1"`
	MaxIdleConns    int `validate:"gte=0"`
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional query cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the optional refresh event publisher. No brokers
// disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string `validate:"required_with=Brokers"`
}

// SummaryConfig locates the generated summary image.
type SummaryConfig struct {
	CacheDir string `validate:"required"`
}

// RefreshConfig tunes the refresh pipeline.
type RefreshConfig struct {
	UpsertConcurrency int `validate:"gte=1,lte=64"`
}

const (
	defaultSourceTimeout     = 10 * time.Second
	defaultUpsertConcurrency = 8
)

// FromEnv loads an optional .env file, builds a Config from environment
// variables and validates it.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Server: Server{
			Addr:           listenAddr(),
			AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS"), []string{"*"}),
			RequestTimeout: envDuration("REQUEST_TIMEOUT", 60*time.Second),
		},
		Sources: Sources{
			CountriesURL: os.Getenv("COUNTRIES_API_URL"),
			RatesURL:     os.Getenv("EXCHANGE_RATE_API_URL"),
			Timeout:      envDuration("EXTERNAL_API_TIMEOUT", defaultSourceTimeout),
		},
		Database: DatabaseConfig{
			DSN:             databaseDSN(),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS"), nil),
			Topic:   envString("KAFKA_TOPIC", "country.refreshed"),
		},
		Summary: SummaryConfig{
			CacheDir: envString("CACHE_DIR", "cache"),
		},
		Refresh: RefreshConfig{
			UpsertConcurrency: envInt("UPSERT_CONCURRENCY", defaultUpsertConcurrency),
		},
		LogLevel: strings.ToLower(envString("LOG_LEVEL", "info")),
	}
	cfg.Sources.CountriesName = envString("COUNTRIES_API_NAME", hostOf(cfg.Sources.CountriesURL))
	cfg.Sources.RatesName = envString("EXCHANGE_RATE_API_NAME", hostOf(cfg.Sources.RatesURL))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// UsesPostgres reports whether a database DSN was configured.
func (c Config) UsesPostgres() bool {
	return c.Database.DSN != ""
}

func listenAddr() string {
	if addr := os.Getenv("ADDR"); addr != "" {
		return addr
	}
	return ":" + envString("PORT", "3000")
}

// databaseDSN prefers DATABASE_URL and otherwise assembles a URL from the
// discrete DB_* variables. No DB_HOST means no database.
func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     host + ":" + envString("DB_PORT", "5432"),
		Path:     "/" + os.Getenv("DB_NAME"),
		RawQuery: "sslmode=" + envString("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(raw string, def []string) []string {
	if out := platformstrings.SplitList(raw, ","); out != nil {
		return out
	}
	return def
}
