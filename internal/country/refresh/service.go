// Package refresh runs the refresh pipeline: fetch both sources, reconcile
// each country against the rate table, upsert by name, then rebuild the
// summary image.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/estimator"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/gateway"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/metrics"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/summary"
	dErrors "github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/domain-errors"
)

const (
	defaultUpsertConcurrency = 8
	topCount                 = 5
)

var tracer = otel.Tracer("github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/refresh")

type Fetcher interface {
	Fetch(ctx context.Context) (*gateway.Snapshot, error)
}

type Store interface {
	Upsert(ctx context.Context, c *models.Country) error
	Status(ctx context.Context) (models.Status, error)
	TopByEstimate(ctx context.Context, n int) ([]models.TopCountry, error)
}

type Renderer interface {
	Render(ctx context.Context, s summary.Summary) error
}

// CacheInvalidator drops cached query results after the table changed.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// EventPublisher announces a completed refresh.
type EventPublisher interface {
	PublishRefreshed(ctx context.Context, result models.RefreshResult) error
}

// Service orchestrates one refresh cycle per call. Concurrent calls are
// allowed; rows are last-write-wins.
type Service struct {
	fetcher     Fetcher
	store       Store
	estimator   *estimator.Estimator
	renderer    Renderer
	cache       CacheInvalidator
	publisher   EventPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithUpsertConcurrency bounds the number of in-flight upserts.
func WithUpsertConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// New constructs a Service.
func New(fetcher Fetcher, store Store, est *estimator.Estimator, renderer Renderer, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		store:       store,
		estimator:   est,
		renderer:    renderer,
		logger:      slog.Default(),
		concurrency: defaultUpsertConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.estimator == nil {
		s.estimator = estimator.New(nil)
	}
	return s
}

// Refresh runs one cycle. A source failure returns CodeUnavailable before
// anything is written. A persistence failure returns CodeInternal; rows
// written before it stay. Summary rendering failures are logged only.
func (s *Service) Refresh(ctx context.Context) (result *models.RefreshResult, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "country.refresh")
	outcome := metrics.OutcomeSuccess
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveRefresh(outcome, start)
		}
	}()

	snapshot, err := s.fetcher.Fetch(ctx)
	if err != nil {
		outcome = metrics.OutcomeSourceFailure
		return nil, s.sourceError(ctx, err)
	}

	countries, skipped := s.reconcile(ctx, snapshot)
	span.SetAttributes(
		attribute.Int("countries.fetched", len(snapshot.Countries)),
		attribute.Int("countries.skipped", skipped),
	)
	if s.metrics != nil {
		s.metrics.AddSkipped(skipped)
	}

	written, err := s.upsertAll(ctx, countries)
	if s.metrics != nil {
		s.metrics.AddUpserted(written)
	}
	if written > 0 {
		// Rows changed even if a later step fails.
		defer s.invalidateCache(ctx)
	}
	if err != nil {
		outcome = metrics.OutcomePersistFailure
		s.logger.ErrorContext(ctx, "refresh aborted while persisting countries",
			"written", written,
			"total", len(countries),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist countries")
	}

	status, err := s.store.Status(ctx)
	if err != nil {
		outcome = metrics.OutcomeInternalFailure
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read country status")
	}
	top, err := s.store.TopByEstimate(ctx, topCount)
	if err != nil {
		outcome = metrics.OutcomeInternalFailure
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read top countries")
	}

	result = &models.RefreshResult{
		Processed: written,
		Skipped:   skipped,
		Status:    status,
	}
	result.ArtifactWritten = s.renderSummary(ctx, status, top)
	s.afterCommit(ctx, *result)

	s.logger.InfoContext(ctx, "countries refreshed",
		"processed", result.Processed,
		"skipped", result.Skipped,
		"total_countries", status.TotalCountries,
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *Service) sourceError(ctx context.Context, err error) error {
	se, ok := gateway.AsSourceError(err)
	if !ok {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch external data")
	}
	s.logger.WarnContext(ctx, "external source unavailable",
		"source", se.Source,
		"category", se.Category,
		"status_code", se.StatusCode,
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "External data source unavailable").WithDetails(se.Message)
}

// reconcile turns raw records into countries. Records without a name or a
// population are skipped.
func (s *Service) reconcile(ctx context.Context, snapshot *gateway.Snapshot) ([]*models.Country, int) {
	countries := make([]*models.Country, 0, len(snapshot.Countries))
	skipped := 0
	for _, raw := range snapshot.Countries {
		if raw.Population == nil {
			skipped++
			s.logger.DebugContext(ctx, "skipping country without population", "name", raw.Name)
			continue
		}
		c, err := models.NewCountry(raw.Name, raw.Capital, raw.Region, *raw.Population, raw.FirstCurrencyCode(), raw.Flag)
		if err != nil {
			skipped++
			s.logger.DebugContext(ctx, "skipping invalid country", "name", raw.Name, "error", err)
			continue
		}
		c.ApplyEstimate(s.estimator.EstimateFor(c.Population, c.CurrencyCode, snapshot.Rates))
		countries = append(countries, c)
	}
	return countries, skipped
}

// upsertAll writes countries with bounded concurrency. The first failure
// stops new writes; writes already done are not rolled back.
func (s *Service) upsertAll(ctx context.Context, countries []*models.Country) (int, error) {
	ctx, span := tracer.Start(ctx, "country.refresh.upsert")
	defer span.End()

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, c := range countries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.store.Upsert(gctx, c); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	err := g.Wait()
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = ctx.Err()
	}
	return int(written.Load()), err
}

func (s *Service) renderSummary(ctx context.Context, status models.Status, top []models.TopCountry) bool {
	if s.renderer == nil {
		return false
	}
	err := s.renderer.Render(ctx, summary.Summary{
		TotalCountries:  status.TotalCountries,
		LastRefreshedAt: status.LastRefreshedAt,
		Top:             top,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementArtifactFailures()
		}
		s.logger.ErrorContext(ctx, "failed to generate summary image", "error", err)
		return false
	}
	return true
}

// invalidateCache drops cached reads once any row has been written, whether
// or not the refresh as a whole succeeds.
func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate query cache", "error", err)
	}
}

// afterCommit announces a completed refresh. Failures are logged only.
func (s *Service) afterCommit(ctx context.Context, result models.RefreshResult) {
	if s.publisher != nil {
		if err := s.publisher.PublishRefreshed(ctx, result); err != nil {
			s.logger.WarnContext(ctx, "failed to publish refresh event", "error", err)
		}
	}
}
