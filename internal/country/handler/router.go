package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/metrics"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/middleware"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/httputil"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries the cross-cutting pieces of the router.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	HealthChecks   map[string]HealthCheck
}

// NewRouter builds the full HTTP surface around h.
func NewRouter(h *Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", handleWelcome)
	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}
	h.Register(r)
	return r
}

type welcomeResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

func handleWelcome(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, welcomeResponse{
		Message: "Welcome to the Country Currency & Exchange API",
		Endpoints: map[string]string{
			"refresh": "POST /countries/refresh",
			"list":    "GET /countries?region=Africa&sort=gdp_desc",
			"get":     "GET /countries/{name}",
			"delete":  "DELETE /countries/{name}",
			"status":  "GET /countries/status",
			"image":   "GET /countries/image",
		},
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
