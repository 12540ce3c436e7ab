package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/cache"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/estimator"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/events"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/gateway"
	countrymetrics "github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/metrics"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/refresh"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/service"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/store"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/summary"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/config"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/kafka"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/logger"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/postgres"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/redis"
)

// countryStore is what both services need from the backing store.
type countryStore interface {
	refresh.Store
	service.Store
	Ping(ctx context.Context) error
}

// app holds the wired components shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	db       *sql.DB
	redis    *redis.Client
	kafka    *kgo.Client
	store    countryStore
	summary  *summary.Generator
	query    *service.Service
	refresh  *refresh.Service
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	return cfg, log, nil
}

// newApp connects to every configured backend. Redis and Kafka are optional;
// without a database DSN the in-memory store is used.
func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := countrymetrics.New(a.registry)

	if cfg.UsesPostgres() {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := store.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, err
		}
		a.store = store.NewPostgres(db)
		log.Info("using postgres store")
	} else {
		a.store = store.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory store")
	}

	queryOpts := []service.Option{service.WithLogger(log), service.WithMetrics(m)}
	refreshOpts := []refresh.Option{
		refresh.WithLogger(log),
		refresh.WithMetrics(m),
		refresh.WithUpsertConcurrency(cfg.Refresh.UpsertConcurrency),
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if rc != nil {
		a.redis = rc
		qc := cache.NewRedis(rc.Client, cfg.Redis.CacheTTL)
		queryOpts = append(queryOpts, service.WithQueryCache(qc))
		refreshOpts = append(refreshOpts, refresh.WithCacheInvalidator(qc))
		log.Info("query cache enabled")
	}

	kc, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		a.Close()
		return nil, err
	}
	if kc != nil {
		a.kafka = kc
		if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka.Topic); err != nil {
			a.Close()
			return nil, err
		}
		refreshOpts = append(refreshOpts, refresh.WithEventPublisher(events.NewPublisher(kc, cfg.Kafka.Topic)))
		log.Info("refresh events enabled", "topic", cfg.Kafka.Topic)
	}

	a.summary = summary.New(cfg.Summary.CacheDir, log)
	client := gateway.New(cfg.Sources, gateway.WithMetrics(m))
	a.refresh = refresh.New(client, a.store, estimator.New(estimator.UniformMultiplier), a.summary, refreshOpts...)
	a.query = service.New(a.store, a.summary, queryOpts...)
	return a, nil
}

// Close releases every backend connection.
func (a *app) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}

var errNoDatabase = errors.New("DATABASE_URL or DB_HOST must be set")

func requireDatabase(cfg config.Config) error {
	if !cfg.UsesPostgres() {
		return fmt.Errorf("migrate: %w", errNoDatabase)
	}
	return nil
}
