package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/handler"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/httpserver"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/metrics"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	checks := map[string]handler.HealthCheck{"store": a.store.Ping}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}

	h := handler.New(a.query, a.refresh, log)
	router := handler.NewRouter(h, log, handler.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        metrics.New(a.registry),
		MetricsHandler: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		HealthChecks:   checks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	return httpserver.Run(ctx, srv, log, shutdownTimeout)
}
