// Package service serves reads and deletes over the country table, with an
// optional query cache in front of the store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/metrics"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	dErrors "github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/domain-errors"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/sentinel"
)

type Store interface {
	FindAll(ctx context.Context, filter models.Filter, order models.SortOrder) ([]*models.Country, error)
	FindByName(ctx context.Context, name string) (*models.Country, error)
	DeleteByName(ctx context.Context, name string) (bool, error)
	Status(ctx context.Context) (models.Status, error)
}

// QueryCache caches list and status reads. Misses are reported with
// sentinel.ErrCacheMiss. Lookups return the cache generation they used; a
// fill must be written under that same generation so that an invalidation
// between the store read and the fill is not lost.
type QueryCache interface {
	GetCountries(ctx context.Context, filter models.Filter, order models.SortOrder) ([]*models.Country, int64, error)
	SetCountries(ctx context.Context, gen int64, filter models.Filter, order models.SortOrder, countries []*models.Country) error
	GetStatus(ctx context.Context) (models.Status, int64, error)
	SetStatus(ctx context.Context, gen int64, status models.Status) error
	Invalidate(ctx context.Context) error
}

// ImageSource reads the rendered summary image.
type ImageSource interface {
	Read() ([]byte, error)
}

// Service answers country queries.
type Service struct {
	store   Store
	images  ImageSource
	cache   QueryCache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithQueryCache(c QueryCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, images ImageSource, opts ...Option) *Service {
	s := &Service{store: store, images: images, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns countries matching the query. Currency codes are matched
// upper-cased; unknown sort values fall back to name order.
func (s *Service) List(ctx context.Context, q models.ListQuery) ([]*models.Country, error) {
	filter, order := q.Normalize()

	var (
		gen  int64
		fill bool
	)
	if s.cache != nil {
		cached, g, err := s.cache.GetCountries(ctx, filter, order)
		if err == nil {
			s.recordLookup("hit")
			return cached, nil
		}
		gen, fill = g, s.recordCacheError(ctx, "list", err)
	}

	countries, err := s.store.FindAll(ctx, filter, order)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list countries")
	}

	if fill {
		if err := s.cache.SetCountries(ctx, gen, filter, order, countries); err != nil {
			s.logger.WarnContext(ctx, "failed to cache country list", "error", err)
		}
	}
	return countries, nil
}

// Get returns one country by exact name.
func (s *Service) Get(ctx context.Context, name string) (*models.Country, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "country name is required")
	}
	c, err := s.store.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Country not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find country")
	}
	return c, nil
}

// Delete removes one country by exact name.
func (s *Service) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "country name is required")
	}
	deleted, err := s.store.DeleteByName(ctx, name)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete country")
	}
	if !deleted {
		return dErrors.New(dErrors.CodeNotFound, "Country not found")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate query cache", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "country deleted", "name", name)
	return nil
}

// Status returns the row count and latest refresh time.
func (s *Service) Status(ctx context.Context) (models.Status, error) {
	var (
		gen  int64
		fill bool
	)
	if s.cache != nil {
		cached, g, err := s.cache.GetStatus(ctx)
		if err == nil {
			s.recordLookup("hit")
			return cached, nil
		}
		gen, fill = g, s.recordCacheError(ctx, "status", err)
	}

	status, err := s.store.Status(ctx)
	if err != nil {
		return models.Status{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read status")
	}

	if fill {
		if err := s.cache.SetStatus(ctx, gen, status); err != nil {
			s.logger.WarnContext(ctx, "failed to cache status", "error", err)
		}
	}
	return status, nil
}

// SummaryImage returns the PNG bytes of the last rendered summary.
func (s *Service) SummaryImage(ctx context.Context) ([]byte, error) {
	if s.images == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "Summary image not found")
	}
	data, err := s.images.Read()
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Summary image not found")
		}
		s.logger.ErrorContext(ctx, "failed to read summary image", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read summary image")
	}
	return data, nil
}

// recordCacheError reports whether the lookup was a plain miss that the
// caller may fill. After any other failure the generation is unknown.
func (s *Service) recordCacheError(ctx context.Context, op string, err error) bool {
	if errors.Is(err, sentinel.ErrCacheMiss) {
		s.recordLookup("miss")
		return true
	}
	s.recordLookup("error")
	s.logger.WarnContext(ctx, "query cache lookup failed", "op", op, "error", err)
	return false
}

func (s *Service) recordLookup(result string) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(result)
	}
}
