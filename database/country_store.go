// database/country_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"github.com/OluwaPella/Stage-two-bankend/utils"
	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"go.uber.org/zap"
)

const maxNameLength = 100

const selectCountryColumns = `
	SELECT id, name, capital, region, population, currency_code,
	       exchange_rate, estimated_gdp, flag_url, last_refreshed_at
	FROM countries`

// CountryStore owns the countries table.
type CountryStore struct {
	db     *DB
	logger *zap.Logger
	now    func() time.Time
}

func NewCountryStore(db *DB) *CountryStore {
	return &CountryStore{
		db:     db,
		logger: db.logger.Named("countries"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// UpsertByName creates the record for fields.Name or, when a record with the
// same case-insensitive name exists, overwrites its mutable fields. Each call
// is its own transaction.
func (s *CountryStore) UpsertByName(ctx context.Context, fields models.CountryFields) (bool, error) {
	fields.Name = strings.TrimSpace(fields.Name)
	if err := validateFields(fields); err != nil {
		return false, err
	}
	key := utils.NormalizeNameKey(fields.Name)

	created, err := s.upsert(ctx, key, fields)
	if err != nil && s.db.dialect.isRetryable(err) {
		// a concurrent writer inserted the same name first; the retry sees its row
		s.logger.Debug("retrying upsert after conflicting write", zap.String("name", fields.Name), zap.Error(err))
		created, err = s.upsert(ctx, key, fields)
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert country %q: %w", fields.Name, err)
	}
	return created, nil
}

func (s *CountryStore) upsert(ctx context.Context, key string, fields models.CountryFields) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := s.db.dialect.rebind(selectCountryColumns + " WHERE name_key = ?" + s.db.dialect.forUpdate())
	existing, err := scanCountry(tx.QueryRowContext(ctx, q, key))
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return false, fmt.Errorf("failed to look up country: %w", err)
	}

	var record models.Country
	if !created {
		record = *existing
	}
	record.Apply(fields)
	record.LastRefreshedAt = s.now()

	if created {
		_, err = tx.ExecContext(ctx, s.db.dialect.rebind(`
			INSERT INTO countries (
				name, name_key, capital, region, population, currency_code,
				exchange_rate, estimated_gdp, flag_url, last_refreshed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			record.Name, key, record.Capital, record.Region, record.Population, record.CurrencyCode,
			record.ExchangeRate, record.EstimatedGdp, record.FlagURL, record.LastRefreshedAt,
		)
	} else {
		_, err = tx.ExecContext(ctx, s.db.dialect.rebind(`
			UPDATE countries SET
				capital = ?, region = ?, population = ?, currency_code = ?,
				exchange_rate = ?, estimated_gdp = ?, flag_url = ?, last_refreshed_at = ?
			WHERE id = ?`),
			record.Capital, record.Region, record.Population, record.CurrencyCode,
			record.ExchangeRate, record.EstimatedGdp, record.FlagURL, record.LastRefreshedAt,
			record.ID,
		)
	}
	if err != nil {
		return false, fmt.Errorf("failed to write country: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit country: %w", err)
	}
	return created, nil
}

// GetByName returns the record whose name matches case-insensitively.
func (s *CountryStore) GetByName(ctx context.Context, name string) (*models.Country, error) {
	q := s.db.dialect.rebind(selectCountryColumns + " WHERE name_key = ?")
	c, err := scanCountry(s.db.QueryRowContext(ctx, q, utils.NormalizeNameKey(name)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("country %q: %w", name, xerrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query country %q: %w", name, err)
	}
	return c, nil
}

// DeleteByName removes the record whose name matches case-insensitively.
func (s *CountryStore) DeleteByName(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.db.dialect.rebind("DELETE FROM countries WHERE name_key = ?"), utils.NormalizeNameKey(name))
	if err != nil {
		return fmt.Errorf("failed to delete country %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("country %q: %w", name, xerrors.ErrNotFound)
	}
	s.logger.Info("deleted country", zap.String("name", name))
	return nil
}

// List returns the records matching filter in the requested order. GDP
// orderings leave out records without an estimated GDP.
func (s *CountryStore) List(ctx context.Context, filter models.CountryFilter) ([]models.Country, error) {
	var (
		where []string
		args  []any
	)
	if filter.Region != "" {
		where = append(where, "LOWER(region) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(filter.Region)))
	}
	if filter.CurrencyCode != "" {
		where = append(where, "LOWER(currency_code) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(filter.CurrencyCode)))
	}
	if filter.Sort.ExcludesMissingGdp() {
		where = append(where, "estimated_gdp IS NOT NULL")
	}

	q := selectCountryColumns
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderClause(filter.Sort)
	if filter.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.db.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	countries := []models.Country{}
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan country row: %w", err)
		}
		countries = append(countries, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating country rows: %w", err)
	}
	return countries, nil
}

// TopByGdp returns up to n records with the highest estimated GDP.
func (s *CountryStore) TopByGdp(ctx context.Context, n int) ([]models.Country, error) {
	return s.List(ctx, models.CountryFilter{Sort: models.SortGdpDesc, Limit: n})
}

// Count returns the number of stored countries.
func (s *CountryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM countries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}
	return n, nil
}

// LatestUpdate returns the most recent last_refreshed_at, or nil when the
// table is empty.
func (s *CountryStore) LatestUpdate(ctx context.Context) (*time.Time, error) {
	var ts time.Time
	err := s.db.QueryRowContext(ctx, "SELECT last_refreshed_at FROM countries ORDER BY last_refreshed_at DESC LIMIT 1").Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest country update: %w", err)
	}
	return &ts, nil
}

func orderClause(sort models.SortOrder) string {
	switch sort {
	case models.SortNameDesc:
		return "name_key DESC, id DESC"
	case models.SortPopulationAsc:
		return "population ASC, name_key ASC"
	case models.SortPopulationDesc:
		return "population DESC, name_key ASC"
	case models.SortGdpAsc:
		return "estimated_gdp ASC, name_key ASC"
	case models.SortGdpDesc:
		return "estimated_gdp DESC, name_key ASC"
	default:
		return "name_key ASC, id ASC"
	}
}

func validateFields(f models.CountryFields) error {
	var verr *xerrors.ValidationError
	if f.Name == "" {
		verr = xerrors.NewValidationError("name", "is required")
	} else if utf8.RuneCountInString(f.Name) > maxNameLength {
		verr = xerrors.NewValidationError("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	if f.Population < 0 {
		if verr == nil {
			verr = &xerrors.ValidationError{}
		}
		verr.Add("population", "must not be negative")
	}
	if verr != nil {
		return verr
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCountry(row rowScanner) (*models.Country, error) {
	var (
		c                                      models.Country
		capital, region, currencyCode, flagURL sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.Name, &capital, &region, &c.Population, &currencyCode,
		&c.ExchangeRate, &c.EstimatedGdp, &flagURL, &c.LastRefreshedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Capital = nullString(capital)
	c.Region = nullString(region)
	c.CurrencyCode = nullString(currencyCode)
	c.FlagURL = nullString(flagURL)
	return &c, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
