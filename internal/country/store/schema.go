package store

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS countries (
		id                SERIAL PRIMARY KEY,
		name              VARCHAR(255) NOT NULL UNIQUE,
		capital           VARCHAR(255),
		region            VARCHAR(255),
		population        BIGINT NOT NULL CHECK (population >= 0),
		currency_code     VARCHAR(10),
		exchange_rate     NUMERIC(20, 6),
		estimated_gdp     NUMERIC(30, 2),
		flag_url          TEXT,
		last_refreshed_at TIMESTAMPTZ NOT NULL,
		CHECK ((exchange_rate IS NULL) = (estimated_gdp IS NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_countries_region ON countries (region)`,
	`CREATE INDEX IF NOT EXISTS idx_countries_currency_code ON countries (currency_code)`,
	`CREATE INDEX IF NOT EXISTS idx_countries_estimated_gdp ON countries (estimated_gdp)`,
}

// Migrate creates the countries table and its indexes. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate countries schema: %w", err)
		}
	}
	return nil
}
