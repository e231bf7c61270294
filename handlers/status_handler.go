// handlers/status_handler.go
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"go.uber.org/zap"
)

const maxRefreshLogLimit = 100

type RefreshLogReader interface {
	Latest(ctx context.Context) (*models.RefreshLog, error)
	List(ctx context.Context, limit int) ([]models.RefreshLog, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatusHandler reports cache totals, refresh history and liveness.
type StatusHandler struct {
	countries CountryReader
	logs      RefreshLogReader
	db        Pinger
	logger    *zap.Logger
}

func NewStatusHandler(countries CountryReader, logs RefreshLogReader, db Pinger, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{countries: countries, logs: logs, db: db, logger: logger.Named("status_handler")}
}

// Status handles GET /status. The timestamp comes from the latest refresh
// log, falling back to the newest record update.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.countries.Count(ctx)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}

	var last *time.Time
	latest, err := h.logs.Latest(ctx)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}
	if latest != nil {
		t := latest.RefreshedAt.UTC()
		last = &t
	} else {
		if last, err = h.countries.LatestUpdate(ctx); err != nil {
			respondWithErr(w, h.logger, err, "")
			return
		}
		if last != nil {
			t := last.UTC()
			last = &t
		}
	}

	respondWithJSON(w, http.StatusOK, statusResponse{TotalCountries: total, LastRefreshedAt: last})
}

// RefreshLogs handles GET /refresh-logs?limit=.
func (h *StatusHandler) RefreshLogs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRefreshLogLimit {
			respondWithErr(w, h.logger,
				xerrors.NewValidationError("limit", "must be an integer between 1 and "+strconv.Itoa(maxRefreshLogLimit)), "")
			return
		}
		limit = n
	}

	entries, err := h.logs.List(r.Context(), limit)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// Health handles GET /health.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
