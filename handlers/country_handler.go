// handlers/country_handler.go
package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"github.com/OluwaPella/Stage-two-bankend/render"
	"github.com/OluwaPella/Stage-two-bankend/services"
	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/go-chi/chi/v5"
	"github.com/jszwec/csvutil"
	"go.uber.org/zap"
)

type CountryReader interface {
	List(ctx context.Context, filter models.CountryFilter) ([]models.Country, error)
	GetByName(ctx context.Context, name string) (*models.Country, error)
	DeleteByName(ctx context.Context, name string) error
	Count(ctx context.Context) (int, error)
	LatestUpdate(ctx context.Context) (*time.Time, error)
}

type Refresher interface {
	Refresh(ctx context.Context) (*services.RefreshResult, error)
}

type SummaryLoader interface {
	Load() (*render.Artifact, error)
}

// CountryHandler serves the /countries routes.
type CountryHandler struct {
	store     CountryReader
	refresher Refresher
	summaries SummaryLoader
	logger    *zap.Logger
}

func NewCountryHandler(store CountryReader, refresher Refresher, summaries SummaryLoader, logger *zap.Logger) *CountryHandler {
	return &CountryHandler{
		store:     store,
		refresher: refresher,
		summaries: summaries,
		logger:    logger.Named("countries_handler"),
	}
}

// Refresh handles POST /countries/refresh.
func (h *CountryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.refresher.Refresh(r.Context())
	if err != nil {
		respondWithErr(w, h.logger, err, "Not found")
		return
	}

	respondWithJSON(w, http.StatusOK, refreshResponse{
		Message:        "Countries data refreshed successfully",
		Stats:          res.Stats,
		TotalCountries: res.TotalCountries,
		RefreshedAt:    res.RefreshedAt.UTC(),
	})
}

// List handles GET /countries?region=&currency=&sort=.
func (h *CountryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}

	countries, err := h.store.List(r.Context(), filter)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}

	out := make([]countryResponse, len(countries))
	for i, c := range countries {
		out[i] = toCountryResponse(c)
	}
	respondWithJSON(w, http.StatusOK, out)
}

// ExportCSV handles GET /countries/export.csv with the same filters as List.
func (h *CountryHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}

	countries, err := h.store.List(r.Context(), filter)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="countries.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(countryCSV{}); err != nil {
		h.logger.Error("failed to write csv header", zap.Error(err))
		return
	}
	for _, c := range countries {
		if err := enc.Encode(toCountryCSV(c)); err != nil {
			h.logger.Error("failed to write csv row", zap.String("name", c.Name), zap.Error(err))
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("failed to flush csv export", zap.Error(err))
	}
}

// Get handles GET /countries/{name}.
func (h *CountryHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}
	c, err := h.store.GetByName(r.Context(), name)
	if err != nil {
		respondWithErr(w, h.logger, err, "Country not found")
		return
	}
	respondWithJSON(w, http.StatusOK, toCountryResponse(*c))
}

// Delete handles DELETE /countries/{name}.
func (h *CountryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		respondWithErr(w, h.logger, err, "")
		return
	}
	if err := h.store.DeleteByName(r.Context(), name); err != nil {
		respondWithErr(w, h.logger, err, "Country not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Image handles GET /countries/image. When only the text rendering exists it
// is returned inside a JSON body instead.
func (h *CountryHandler) Image(w http.ResponseWriter, r *http.Request) {
	a, err := h.summaries.Load()
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Summary image not found", nil)
			return
		}
		respondWithErr(w, h.logger, err, "")
		return
	}

	if a.Format != render.FormatPNG {
		respondWithJSON(w, http.StatusOK, textSummaryResponse{
			Message: "Image not available, but text summary exists",
			Summary: string(a.Data),
		})
		return
	}

	w.Header().Set("Content-Type", a.Format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	if !a.ModTime.IsZero() {
		w.Header().Set("Last-Modified", a.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(a.Data)
}

// nameParam returns the decoded {name} segment. chi matches against RawPath
// when the client's escaping differs from Go's, e.g. an unescaped ' or (, and
// the captured value is then still percent-encoded.
func nameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", xerrors.NewValidationError("name", "is not a valid path segment")
	}
	return decoded, nil
}

func parseFilter(r *http.Request) (models.CountryFilter, error) {
	q := r.URL.Query()
	sort, err := models.ParseSortOrder(q.Get("sort"))
	if err != nil {
		return models.CountryFilter{}, err
	}
	currency := q.Get("currency")
	if currency == "" {
		currency = q.Get("currency_code")
	}
	return models.CountryFilter{
		Region:       strings.TrimSpace(q.Get("region")),
		CurrencyCode: strings.TrimSpace(currency),
		Sort:         sort,
	}, nil
}
