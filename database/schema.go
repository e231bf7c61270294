// database/schema.go
package database

import (
	"context"
	"fmt"
)

var schemas = map[Dialect][]string{
	MySQL: {
		`CREATE TABLE IF NOT EXISTS countries (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			name_key VARCHAR(100) NOT NULL,
			capital VARCHAR(100) NULL,
			region VARCHAR(50) NULL,
			population BIGINT NOT NULL DEFAULT 0,
			currency_code VARCHAR(10) NULL,
			exchange_rate DECIMAL(20,6) NULL,
			estimated_gdp DECIMAL(30,2) NULL,
			flag_url VARCHAR(500) NULL,
			last_refreshed_at DATETIME(6) NOT NULL,
			UNIQUE KEY uq_countries_name_key (name_key),
			KEY idx_countries_region (region),
			KEY idx_countries_currency_code (currency_code)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS refresh_logs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(26) NOT NULL,
			total_countries INT NOT NULL,
			created_count INT NOT NULL DEFAULT 0,
			updated_count INT NOT NULL DEFAULT 0,
			skipped_count INT NOT NULL DEFAULT 0,
			refreshed_at DATETIME(6) NOT NULL,
			KEY idx_refresh_logs_refreshed_at (refreshed_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	Postgres: {
		`CREATE TABLE IF NOT EXISTS countries (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			name_key VARCHAR(100) NOT NULL,
			capital VARCHAR(100),
			region VARCHAR(50),
			population BIGINT NOT NULL DEFAULT 0,
			currency_code VARCHAR(10),
			exchange_rate NUMERIC(20,6),
			estimated_gdp NUMERIC(30,2),
			flag_url VARCHAR(500),
			last_refreshed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_countries_name_key ON countries (name_key)`,
		`CREATE INDEX IF NOT EXISTS idx_countries_region ON countries (region)`,
		`CREATE INDEX IF NOT EXISTS idx_countries_currency_code ON countries (currency_code)`,
		`CREATE TABLE IF NOT EXISTS refresh_logs (
			id BIGSERIAL PRIMARY KEY,
			run_id VARCHAR(26) NOT NULL,
			total_countries INTEGER NOT NULL,
			created_count INTEGER NOT NULL DEFAULT 0,
			updated_count INTEGER NOT NULL DEFAULT 0,
			skipped_count INTEGER NOT NULL DEFAULT 0,
			refreshed_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_logs_refreshed_at ON refresh_logs (refreshed_at)`,
	},
	SQLite: {
		`CREATE TABLE IF NOT EXISTS countries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			name_key TEXT NOT NULL,
			capital TEXT,
			region TEXT,
			population INTEGER NOT NULL DEFAULT 0,
			currency_code TEXT,
			exchange_rate NUMERIC,
			estimated_gdp NUMERIC,
			flag_url TEXT,
			last_refreshed_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_countries_name_key ON countries (name_key)`,
		`CREATE INDEX IF NOT EXISTS idx_countries_region ON countries (region)`,
		`CREATE INDEX IF NOT EXISTS idx_countries_currency_code ON countries (currency_code)`,
		`CREATE TABLE IF NOT EXISTS refresh_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			total_countries INTEGER NOT NULL,
			created_count INTEGER NOT NULL DEFAULT 0,
			updated_count INTEGER NOT NULL DEFAULT 0,
			skipped_count INTEGER NOT NULL DEFAULT 0,
			refreshed_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_logs_refreshed_at ON refresh_logs (refreshed_at)`,
	},
}

// createSchema runs the dialect's DDL one statement at a time; the MySQL
// driver rejects multi-statement Exec by default.
func (db *DB) createSchema(ctx context.Context) error {
	stmts, ok := schemas[db.dialect]
	if !ok {
		return fmt.Errorf("no schema for dialect %q", db.dialect)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
