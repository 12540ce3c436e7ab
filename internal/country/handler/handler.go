// Package handler exposes the country API over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/platform/middleware"
	dErrors "github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/domain-errors"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/httputil"
)

const refreshSuccessMessage = "Countries and exchange rates refreshed successfully."

// QueryService answers reads and deletes.
type QueryService interface {
	List(ctx context.Context, q models.ListQuery) ([]*models.Country, error)
	Get(ctx context.Context, name string) (*models.Country, error)
	Delete(ctx context.Context, name string) error
	Status(ctx context.Context) (models.Status, error)
	SummaryImage(ctx context.Context) ([]byte, error)
}

// RefreshService runs the refresh pipeline.
type RefreshService interface {
	Refresh(ctx context.Context) (*models.RefreshResult, error)
}

// Handler serves the /countries routes.
type Handler struct {
	query     QueryService
	refresher RefreshService
	logger    *slog.Logger
	validate  *validator.Validate
}

// New creates a country Handler.
func New(query QueryService, refresher RefreshService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		query:     query,
		refresher: refresher,
		logger:    logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register mounts the country routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/countries", func(r chi.Router) {
		r.Post("/refresh", h.handleRefresh)
		r.Get("/status", h.handleStatus)
		r.Get("/image", h.handleImage)
		r.Get("/", h.handleList)
		r.Get("/{name}", h.handleGet)
		r.Delete("/{name}", h.handleDelete)
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	result, err := h.refresher.Refresh(ctx)
	if err != nil {
		h.logError(ctx, "refresh failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.RefreshResponse{
		Message:            refreshSuccessMessage,
		CountriesProcessed: result.Processed,
		Skipped:            result.Skipped,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	values := r.URL.Query()
	q := models.ListQuery{
		Region:   values.Get("region"),
		Currency: values.Get("currency"),
		Sort:     values.Get("sort"),
	}
	if err := h.validate.Struct(q); err != nil {
		h.logger.WarnContext(ctx, "invalid list query",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Validation failed").WithDetails(describeValidation(err)))
		return
	}

	countries, err := h.query.List(ctx, q)
	if err != nil {
		h.logError(ctx, "failed to list countries", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponses(countries))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	country, err := h.query.Get(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.logError(ctx, "failed to get country", middleware.GetRequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToResponse(country))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.query.Delete(ctx, chi.URLParam(r, "name")); err != nil {
		h.logError(ctx, "failed to delete country", middleware.GetRequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.query.Status(ctx)
	if err != nil {
		h.logError(ctx, "failed to read status", middleware.GetRequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToStatusResponse(status))
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, err := h.query.SummaryImage(ctx)
	if err != nil {
		h.logError(ctx, "failed to serve summary image", middleware.GetRequestID(ctx), err)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// logError logs client errors at warn and everything else at error.
func (h *Handler) logError(ctx context.Context, msg, requestID string, err error) {
	de, ok := dErrors.As(err)
	if ok && httputil.StatusFor(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err.Error())
		return
	}
	h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err.Error())
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
