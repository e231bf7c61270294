// database/refresh_log_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"go.uber.org/zap"
)

const selectRefreshLogColumns = `
	SELECT id, run_id, total_countries, created_count, updated_count, skipped_count, refreshed_at
	FROM refresh_logs`

// RefreshLogStore owns the append-only refresh_logs table.
type RefreshLogStore struct {
	db     *DB
	logger *zap.Logger
}

func NewRefreshLogStore(db *DB) *RefreshLogStore {
	return &RefreshLogStore{db: db, logger: db.logger.Named("refresh_logs")}
}

// Append inserts entry and returns it with its assigned ID.
func (s *RefreshLogStore) Append(ctx context.Context, entry models.RefreshLog) (*models.RefreshLog, error) {
	entry.RefreshedAt = entry.RefreshedAt.UTC()
	args := []any{entry.RunID, entry.TotalCountries, entry.Created, entry.Updated, entry.Skipped, entry.RefreshedAt}
	query := `
		INSERT INTO refresh_logs (
			run_id, total_countries, created_count, updated_count, skipped_count, refreshed_at
		) VALUES (?, ?, ?, ?, ?, ?)`

	// Postgres drivers do not implement LastInsertId.
	if s.db.dialect == Postgres {
		err := s.db.QueryRowContext(ctx, s.db.dialect.rebind(query+" RETURNING id"), args...).Scan(&entry.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to append refresh log: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to append refresh log: %w", err)
		}
		if entry.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to read refresh log id: %w", err)
		}
	}

	s.logger.Info("appended refresh log",
		zap.String("run_id", entry.RunID),
		zap.Int("total_countries", entry.TotalCountries),
	)
	return &entry, nil
}

// Latest returns the most recent entry, or nil when no refresh has completed.
func (s *RefreshLogStore) Latest(ctx context.Context) (*models.RefreshLog, error) {
	entry, err := scanRefreshLog(s.db.QueryRowContext(ctx, selectRefreshLogColumns+" ORDER BY refreshed_at DESC, id DESC LIMIT 1"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest refresh log: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, most recent first.
func (s *RefreshLogStore) List(ctx context.Context, limit int) ([]models.RefreshLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("%s ORDER BY refreshed_at DESC, id DESC LIMIT %d", selectRefreshLogColumns, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh logs: %w", err)
	}
	defer rows.Close()

	entries := []models.RefreshLog{}
	for rows.Next() {
		e, err := scanRefreshLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh log row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refresh log rows: %w", err)
	}
	return entries, nil
}

func scanRefreshLog(row rowScanner) (*models.RefreshLog, error) {
	var e models.RefreshLog
	if err := row.Scan(&e.ID, &e.RunID, &e.TotalCountries, &e.Created, &e.Updated, &e.Skipped, &e.RefreshedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
