package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/sentinel"
)

// InMemoryStore keeps countries in a map keyed by name. It is used when no
// database is configured and in tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	countries map[string]models.Country
	clock     Clock
}

// NewInMemory creates an empty in-memory store.
func NewInMemory(opts ...Option) *InMemoryStore {
	o := applyOptions(opts)
	return &InMemoryStore{
		countries: make(map[string]models.Country),
		clock:     o.clock,
	}
}

func (s *InMemoryStore) Upsert(ctx context.Context, c *models.Country) error {
	if c == nil {
		return fmt.Errorf("country is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.LastRefreshedAt = s.clock().UTC().Truncate(time.Microsecond)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries[c.Name] = *c
	return nil
}

func (s *InMemoryStore) FindAll(_ context.Context, filter models.Filter, order models.SortOrder) ([]*models.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Country, 0, len(s.countries))
	for _, c := range s.countries {
		if filter.Region != "" && c.Region != filter.Region {
			continue
		}
		if filter.CurrencyCode != "" && c.CurrencyCode != filter.CurrencyCode {
			continue
		}
		copied := c
		out = append(out, &copied)
	}
	sortCountries(out, order)
	return out, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*models.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.countries[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) DeleteByName(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.countries[name]; !ok {
		return false, nil
	}
	delete(s.countries, name)
	return true, nil
}

func (s *InMemoryStore) Status(_ context.Context) (models.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := models.Status{TotalCountries: len(s.countries)}
	for _, c := range s.countries {
		if status.LastRefreshedAt == nil || c.LastRefreshedAt.After(*status.LastRefreshedAt) {
			ts := c.LastRefreshedAt
			status.LastRefreshedAt = &ts
		}
	}
	return status, nil
}

func (s *InMemoryStore) TopByEstimate(ctx context.Context, n int) ([]models.TopCountry, error) {
	if n <= 0 {
		return []models.TopCountry{}, nil
	}
	all, err := s.FindAll(ctx, models.Filter{}, models.SortGDPDesc)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	top := make([]models.TopCountry, 0, len(all))
	for _, c := range all {
		top = append(top, models.TopCountry{Name: c.Name, EstimatedGDP: c.EstimatedGDP})
	}
	return top, nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}
