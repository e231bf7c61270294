// scraper/countries_client.go
package scraper

import (
	"context"
	"fmt"

	"github.com/OluwaPella/Stage-two-bankend/config"
	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

const countriesSource = "countries API"

// CountriesClient downloads the country catalog.
type CountriesClient struct {
	fetcher
	url    string
	logger *zap.Logger
}

func NewCountriesClient(cfg config.UpstreamConfig, logger *zap.Logger) *CountriesClient {
	return &CountriesClient{
		fetcher: newFetcher(cfg),
		url:     cfg.CountriesURL,
		logger:  logger.Named("countries_client"),
	}
}

// FetchCountries returns the catalog entries undecoded so that one malformed
// entry cannot reject the whole batch. The body itself must be a JSON array.
func (c *CountriesClient) FetchCountries(ctx context.Context) ([]*fastjson.Value, error) {
	v, err := c.getJSON(ctx, countriesSource, c.url)
	if err != nil {
		c.logger.Warn("countries fetch failed", zap.Error(err))
		return nil, err
	}

	entries, err := v.Array()
	if err != nil {
		err = &xerrors.UpstreamError{
			Source: countriesSource,
			Err:    fmt.Errorf("expected a JSON array, got %s", v.Type()),
		}
		c.logger.Warn("countries fetch failed", zap.Error(err))
		return nil, err
	}

	c.logger.Info("fetched countries", zap.Int("entries", len(entries)))
	return entries, nil
}
