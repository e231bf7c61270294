package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/config"
	"github.com/OluwaPella/Stage-two-bankend/database"
	"github.com/OluwaPella/Stage-two-bankend/render"
	"github.com/OluwaPella/Stage-two-bankend/scraper"
	"github.com/OluwaPella/Stage-two-bankend/services"
	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	catalogBody = `[
		{"name": "Testland", "capital": "Test City", "region": "Test Region", "population": 1000,
		 "flag": "https://flags.example/testland.svg", "currencies": [{"code": "USD"}]},
		{"name": "NoCur", "region": "Test Region", "population": 500, "currencies": []}
	]`
	ratesBody      = `{"result": "success", "rates": {"USD": 2}}`
	ratesErrorBody = `{"result": "error", "error-type": "quota-reached"}`
)

// lowestMultiplier always draws 1000 so GDP figures are predictable.
type lowestMultiplier struct{}

func (lowestMultiplier) Int64N(int64) int64 { return 0 }

type upstream struct {
	mu        sync.Mutex
	countries string
	rates     string
}

func (u *upstream) set(countries, rates string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.countries, u.rates = countries, rates
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/countries":
		w.Write([]byte(u.countries))
	case "/rates":
		w.Write([]byte(u.rates))
	default:
		http.NotFound(w, r)
	}
}

type testEnv struct {
	handler  http.Handler
	upstream *upstream
	cache    *render.FileCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "countries.db"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	up := &upstream{countries: catalogBody, rates: ratesBody}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	upCfg := config.UpstreamConfig{
		CountriesURL: srv.URL + "/countries",
		RatesURL:     srv.URL + "/rates",
		Timeout:      5 * time.Second,
		MaxBodyBytes: 1 << 20,
	}

	store := database.NewCountryStore(db)
	logs := database.NewRefreshLogStore(db)
	cache := render.NewFileCache(t.TempDir())

	svc := services.NewRefreshService(services.RefreshDeps{
		Countries: scraper.NewCountriesClient(upCfg, log),
		Rates:     scraper.NewRatesClient(upCfg, log),
		Store:     store,
		Logs:      logs,
		Estimator: services.NewGdpEstimator(lowestMultiplier{}),
		Summary:   render.NewGenerator(store, render.TextRenderer{}, cache, log),
	}, log)

	return &testEnv{
		handler: NewRouter(
			NewCountryHandler(store, svc, cache, log),
			NewStatusHandler(store, logs, db, log),
			log,
		),
		upstream: up,
		cache:    cache,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()
	require.NoError(t, dec.Decode(v), rec.Body.String())
}

func (e *testEnv) refresh(t *testing.T) map[string]any {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/countries/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	decode(t, rec, &body)
	return body
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)

	body := env.refresh(t)
	assert.Equal(t, "Countries data refreshed successfully", body["message"])
	assert.Equal(t, map[string]any{
		"created": json.Number("2"),
		"updated": json.Number("0"),
		"skipped": json.Number("0"),
	}, body["stats"])
	assert.Equal(t, json.Number("2"), body["total_countries"])
	assert.NotEmpty(t, body["refreshed_at"])

	body = env.refresh(t)
	assert.Equal(t, json.Number("2"), body["stats"].(map[string]any)["updated"])
}

func TestRefresh_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)
	env.upstream.set(catalogBody, ratesErrorBody)

	rec := env.do(t, http.MethodPost, "/countries/refresh", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "External data source unavailable", body["error"])
	assert.Contains(t, body["details"], "exchange rates API")

	rec = env.do(t, http.MethodGet, "/refresh-logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]any
	decode(t, rec, &entries)
	assert.Len(t, entries, 1, "a failed refresh appends no log entry")
}

func TestListCountries(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)

	rec := env.do(t, http.MethodGet, "/countries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var list []map[string]any
	decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "NoCur", list[0]["name"])
	assert.Nil(t, list[0]["currency_code"])
	assert.Nil(t, list[0]["exchange_rate"])
	assert.Equal(t, json.Number("0.00"), list[0]["estimated_gdp"])

	testland := list[1]
	assert.Equal(t, "Testland", testland["name"])
	assert.Equal(t, "Test City", testland["capital"])
	assert.Equal(t, json.Number("1000"), testland["population"])
	assert.Equal(t, "USD", testland["currency_code"])
	assert.Equal(t, json.Number("2"), testland["exchange_rate"])
	assert.Equal(t, json.Number("500000.00"), testland["estimated_gdp"])
	assert.Equal(t, "https://flags.example/testland.svg", testland["flag_url"])
	_, err := time.Parse(time.RFC3339, testland["last_refreshed_at"].(string))
	assert.NoError(t, err)
}

func TestListCountries_FiltersAndSort(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)

	names := func(target string) []string {
		rec := env.do(t, http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var list []map[string]any
		decode(t, rec, &list)
		out := []string{}
		for _, c := range list {
			out = append(out, c["name"].(string))
		}
		return out
	}

	assert.Equal(t, []string{"Testland", "NoCur"}, names("/countries?sort=gdp_desc"))
	assert.Equal(t, []string{"Testland", "NoCur"}, names("/countries?sort=population_desc"))
	assert.Equal(t, []string{"Testland"}, names("/countries?currency=usd"))
	assert.Equal(t, []string{"Testland"}, names("/countries?currency_code=USD"))
	assert.Equal(t, []string{"NoCur", "Testland"}, names("/countries?region=test%20region"))
	assert.Equal(t, []string{}, names("/countries?region=Europe"))
	assert.Equal(t, []string{"NoCur", "Testland"}, names("/countries/"))
}

func TestListCountries_InvalidSort(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/countries?sort=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Contains(t, body["details"], "sort")
}

func TestGetAndDeleteCountry(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)

	rec := env.do(t, http.MethodGet, "/countries/testLAND", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var c map[string]any
	decode(t, rec, &c)
	assert.Equal(t, "Testland", c["name"])

	rec = env.do(t, http.MethodDelete, "/countries/TESTLAND", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec = env.do(t, method, "/countries/Testland", nil)
		require.Equal(t, http.StatusNotFound, rec.Code, method)
		var body map[string]any
		decode(t, rec, &body)
		assert.Equal(t, "Country not found", body["error"])
	}
}

func TestGetAndDeleteCountry_EscapedNames(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.set(`[
		{"name": "Côte d'Ivoire", "region": "Africa", "population": 100, "currencies": [{"code": "USD"}]},
		{"name": "Korea (Republic of)", "region": "Asia", "population": 200, "currencies": [{"code": "USD"}]}
	]`, ratesBody)
	env.refresh(t)

	cases := []struct {
		target string
		want   string
	}{
		{"/countries/C%C3%B4te%20d'Ivoire", "Côte d'Ivoire"},
		{"/countries/C%C3%B4te%20d%27Ivoire", "Côte d'Ivoire"},
		{"/countries/Korea%20(Republic%20of)", "Korea (Republic of)"},
		{"/countries/korea%20%28republic%20of%29", "Korea (Republic of)"},
	}
	for _, tc := range cases {
		rec := env.do(t, http.MethodGet, tc.target, nil)
		require.Equal(t, http.StatusOK, rec.Code, tc.target)
		var c map[string]any
		decode(t, rec, &c)
		assert.Equal(t, tc.want, c["name"], tc.target)
	}

	rec := env.do(t, http.MethodDelete, "/countries/C%C3%B4te%20d'Ivoire", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/countries/Korea%20%28Republic%20of%29", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	for _, target := range []string{"/countries/C%C3%B4te%20d%27Ivoire", "/countries/Korea%20(Republic%20of)"} {
		rec = env.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestGetCountry_MalformedEscape(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/countries/x", nil)
	req.URL.RawPath = "/countries/%zz"
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "Validation failed", body["error"])
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, json.Number("0"), body["total_countries"])
	assert.Nil(t, body["last_refreshed_at"])

	refreshed := env.refresh(t)

	rec = env.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, json.Number("2"), body["total_countries"])
	want, err := time.Parse(time.RFC3339Nano, refreshed["refreshed_at"].(string))
	require.NoError(t, err)
	got, err := time.Parse(time.RFC3339Nano, body["last_refreshed_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, want, got, time.Millisecond)
}

func TestImage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/countries/image", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "Summary image not found", body["error"])

	env.refresh(t)

	rec = env.do(t, http.MethodGet, "/countries/image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "Image not available, but text summary exists", body["message"])
	summary := body["summary"].(string)
	assert.Contains(t, summary, "Total Countries: 2")
	assert.Contains(t, summary, "1. Testland: $500,000.00")
	assert.Contains(t, summary, "2. NoCur: $0.00")
}

func TestImage_PNGWithETag(t *testing.T) {
	env := newTestEnv(t)
	png := []byte("\x89PNG\r\n\x1a\nfake")
	require.NoError(t, env.cache.Save(render.FormatPNG, png))

	rec := env.do(t, http.MethodGet, "/countries/image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.Equal(png, rec.Body.Bytes()))

	tag := rec.Header().Get("ETag")
	require.NotEmpty(t, tag)

	rec = env.do(t, http.MethodGet, "/countries/image", http.Header{"If-None-Match": {tag}})
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)

	rec := env.do(t, http.MethodGet, "/countries/export.csv?sort=gdp_desc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,capital,region,population,currency_code,exchange_rate,estimated_gdp,flag_url,last_refreshed_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Testland,Test City,Test Region,1000,USD,2,500000.00,https://flags.example/testland.svg,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "NoCur,,Test Region,500,,,0.00,,"), lines[2])
}

func TestRefreshLogs(t *testing.T) {
	env := newTestEnv(t)
	env.refresh(t)
	env.refresh(t)

	rec := env.do(t, http.MethodGet, "/refresh-logs?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []map[string]any
	decode(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, json.Number("2"), entries[0]["updated"])
	assert.Equal(t, json.Number("2"), entries[0]["total_countries"])

	rec = env.do(t, http.MethodGet, "/refresh-logs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRespondWithErr(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"canceled", fmt.Errorf("refresh: %w", context.Canceled), http.StatusServiceUnavailable, "Request canceled"},
		{"refresh in progress", xerrors.ErrRefreshInProgress, http.StatusConflict, "Refresh already in progress"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithErr(rec, zap.NewNop(), tt.err, "")
			require.Equal(t, tt.code, rec.Code)
			var body map[string]any
			decode(t, rec, &body)
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/countries/Testland", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
