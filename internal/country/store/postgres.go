package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/pkg/platform/sentinel"
)

// Clock returns the current time. Stores stamp LastRefreshedAt with it.
type Clock func() time.Time

// Option configures a store.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock sets the clock used to stamp writes.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

const countryColumns = `name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at`

// PostgresStore persists countries in PostgreSQL.
type PostgresStore struct {
	db    *sql.DB
	clock Clock
}

// NewPostgres constructs a PostgreSQL-backed country store.
func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	o := applyOptions(opts)
	return &PostgresStore{db: db, clock: o.clock}
}

// Upsert inserts or fully overwrites the row with the same name and stamps
// LastRefreshedAt on c.
func (s *PostgresStore) Upsert(ctx context.Context, c *models.Country) error {
	if c == nil {
		return fmt.Errorf("country is required")
	}
	refreshedAt := s.clock().UTC().Truncate(time.Microsecond)
	query := `
		INSERT INTO countries (` + countryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET
			capital = EXCLUDED.capital,
			region = EXCLUDED.region,
			population = EXCLUDED.population,
			currency_code = EXCLUDED.currency_code,
			exchange_rate = EXCLUDED.exchange_rate,
			estimated_gdp = EXCLUDED.estimated_gdp,
			flag_url = EXCLUDED.flag_url,
			last_refreshed_at = EXCLUDED.last_refreshed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		c.Name,
		nullString(c.Capital),
		nullString(c.Region),
		c.Population,
		nullString(c.CurrencyCode),
		c.ExchangeRate,
		c.EstimatedGDP,
		nullString(c.FlagURL),
		refreshedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert country %q: %w", c.Name, err)
	}
	c.LastRefreshedAt = refreshedAt
	return nil
}

func (s *PostgresStore) FindAll(ctx context.Context, filter models.Filter, order models.SortOrder) ([]*models.Country, error) {
	var (
		where []string
		args  []any
	)
	if filter.Region != "" {
		args = append(args, filter.Region)
		where = append(where, fmt.Sprintf("region = $%d", len(args)))
	}
	if filter.CurrencyCode != "" {
		args = append(args, filter.CurrencyCode)
		where = append(where, fmt.Sprintf("currency_code = $%d", len(args)))
	}

	query := `SELECT ` + countryColumns + ` FROM countries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + orderByClause(order)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	countries := make([]*models.Country, 0)
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}
	return countries, nil
}

// FindByName looks a country up by its exact name.
func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Country, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+countryColumns+` FROM countries WHERE name = $1`, name)
	c, err := scanCountry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find country by name: %w", err)
	}
	return c, nil
}

// DeleteByName removes a country and reports whether a row existed.
func (s *PostgresStore) DeleteByName(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM countries WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("delete country: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete country rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Status(ctx context.Context) (models.Status, error) {
	var (
		total  int
		latest sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(last_refreshed_at) FROM countries`).Scan(&total, &latest)
	if err != nil {
		return models.Status{}, fmt.Errorf("country status: %w", err)
	}
	status := models.Status{TotalCountries: total}
	if latest.Valid {
		ts := latest.Time.UTC()
		status.LastRefreshedAt = &ts
	}
	return status, nil
}

// TopByEstimate returns the n highest estimates, NULL estimates last.
func (s *PostgresStore) TopByEstimate(ctx context.Context, n int) ([]models.TopCountry, error) {
	if n <= 0 {
		return []models.TopCountry{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, estimated_gdp FROM countries
		ORDER BY `+orderByClause(models.SortGDPDesc)+`
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("top countries: %w", err)
	}
	defer rows.Close()

	top := make([]models.TopCountry, 0, n)
	for rows.Next() {
		var t models.TopCountry
		if err := rows.Scan(&t.Name, &t.EstimatedGDP); err != nil {
			return nil, fmt.Errorf("scan top country: %w", err)
		}
		top = append(top, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top countries: %w", err)
	}
	return top, nil
}

// Ping reports database reachability for health checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCountry(row rowScanner) (*models.Country, error) {
	var (
		c                               models.Country
		capital, region, currency, flag sql.NullString
	)
	err := row.Scan(
		&c.Name,
		&capital,
		&region,
		&c.Population,
		&currency,
		&c.ExchangeRate,
		&c.EstimatedGDP,
		&flag,
		&c.LastRefreshedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Capital = capital.String
	c.Region = region.String
	c.CurrencyCode = currency.String
	c.FlagURL = flag.String
	c.LastRefreshedAt = c.LastRefreshedAt.UTC()
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
