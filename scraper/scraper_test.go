package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/config"
	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func upstreamConfig(url string) config.UpstreamConfig {
	return config.UpstreamConfig{
		CountriesURL: url,
		RatesURL:     url,
		Timeout:      2 * time.Second,
		MaxBodyBytes: 1 << 20,
		UserAgent:    "test-agent",
	}
}

func TestFetchCountries(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[{"name":"Testland","population":1000},{"name":42}]`))
	}))
	defer srv.Close()

	client := NewCountriesClient(upstreamConfig(srv.URL), zap.NewNop())
	entries, err := client.FetchCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Testland", string(entries[0].GetStringBytes("name")))
	assert.Equal(t, "test-agent", gotAgent)
}

func TestFetchCountries_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
		{"not found", http.StatusNotFound, ``},
		{"malformed json", http.StatusOK, `[{"name":`},
		{"object instead of array", http.StatusOK, `{"status":404}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			client := NewCountriesClient(upstreamConfig(srv.URL), zap.NewNop())

			_, err := client.FetchCountries(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, xerrors.ErrUpstreamUnavailable)
			assert.Contains(t, err.Error(), "countries API")
		})
	}
}

func TestFetchCountries_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := upstreamConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewCountriesClient(cfg, zap.NewNop())

	_, err := client.FetchCountries(context.Background())
	assert.ErrorIs(t, err, xerrors.ErrUpstreamUnavailable)
}

func TestFetchCountries_BodyTooLarge(t *testing.T) {
	srv := serve(t, http.StatusOK, "["+strings.Repeat(`{"name":"x"},`, 200)+`{"name":"y"}]`)

	cfg := upstreamConfig(srv.URL)
	cfg.MaxBodyBytes = 64
	client := NewCountriesClient(cfg, zap.NewNop())

	_, err := client.FetchCountries(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestFetchRates(t *testing.T) {
	srv := serve(t, http.StatusOK, `{
		"result": "success",
		"base_code": "USD",
		"rates": {"USD": 1, "NGN": 1600.230012, "eur": 0.92, "BAD": "n/a"}
	}`)
	client := NewRatesClient(upstreamConfig(srv.URL), zap.NewNop())

	rates, err := client.FetchRates(context.Background())
	require.NoError(t, err)
	assert.Len(t, rates, 3)
	assert.True(t, rates["USD"].Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "1600.230012", rates["NGN"].String())
	assert.True(t, rates["EUR"].Equal(decimal.RequireFromString("0.92")))
	_, ok := rates["BAD"]
	assert.False(t, ok)
}

func TestFetchRates_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"result error", http.StatusOK, `{"result":"error","error-type":"unsupported-code"}`},
		{"missing result", http.StatusOK, `{"rates":{"USD":1}}`},
		{"missing rates", http.StatusOK, `{"result":"success"}`},
		{"rates not an object", http.StatusOK, `{"result":"success","rates":[1,2]}`},
		{"array body", http.StatusOK, `[]`},
		{"bad gateway", http.StatusBadGateway, `oops`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			client := NewRatesClient(upstreamConfig(srv.URL), zap.NewNop())

			_, err := client.FetchRates(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, xerrors.ErrUpstreamUnavailable)
			assert.Contains(t, err.Error(), "exchange rates API")
		})
	}
}

func TestFetch_Unreachable(t *testing.T) {
	srv := serve(t, http.StatusOK, `[]`)
	url := srv.URL
	srv.Close()

	client := NewRatesClient(upstreamConfig(url), zap.NewNop())
	_, err := client.FetchRates(context.Background())

	var uerr *xerrors.UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "exchange rates API", uerr.Source)
}
