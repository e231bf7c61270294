// scraper/fetch.go
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/OluwaPella/Stage-two-bankend/config"
	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/valyala/fastjson"
)

// fetcher is the HTTP plumbing shared by the upstream clients.
type fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

func newFetcher(cfg config.UpstreamConfig) fetcher {
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 16 << 20
	}
	return fetcher{
		// no retries; the timeout bounds the whole exchange including the body read
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBody:   maxBody,
	}
}

// getJSON fetches url and parses the body. Every failure comes back as an
// *xerrors.UpstreamError naming source.
func (f fetcher) getJSON(ctx context.Context, source, url string) (*fastjson.Value, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, &xerrors.UpstreamError{Source: source, Err: err}
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, &xerrors.UpstreamError{Source: source, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	return v, nil
}

func (f fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make GET request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("received status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("response body from %s exceeds %d bytes", url, f.maxBody)
	}
	return body, nil
}
