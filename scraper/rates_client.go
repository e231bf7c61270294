// scraper/rates_client.go
package scraper

import (
	"context"
	"fmt"

	"github.com/OluwaPella/Stage-two-bankend/config"
	"github.com/OluwaPella/Stage-two-bankend/utils"
	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

const ratesSource = "exchange rates API"

// RatesClient downloads the USD-based exchange rate table.
type RatesClient struct {
	fetcher
	url    string
	logger *zap.Logger
}

func NewRatesClient(cfg config.UpstreamConfig, logger *zap.Logger) *RatesClient {
	return &RatesClient{
		fetcher: newFetcher(cfg),
		url:     cfg.RatesURL,
		logger:  logger.Named("rates_client"),
	}
}

// FetchRates returns units of each currency per US dollar, keyed by ISO code.
// A payload whose result is not "success" counts as an upstream failure.
func (c *RatesClient) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	v, err := c.getJSON(ctx, ratesSource, c.url)
	if err != nil {
		c.logger.Warn("rates fetch failed", zap.Error(err))
		return nil, err
	}

	rates, err := c.parseRates(v)
	if err != nil {
		err = &xerrors.UpstreamError{Source: ratesSource, Err: err}
		c.logger.Warn("rates fetch failed", zap.Error(err))
		return nil, err
	}

	c.logger.Info("fetched exchange rates", zap.Int("currencies", len(rates)))
	return rates, nil
}

func (c *RatesClient) parseRates(v *fastjson.Value) (map[string]decimal.Decimal, error) {
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("expected a JSON object, got %s", v.Type())
	}
	if result := string(v.GetStringBytes("result")); result != "success" {
		return nil, fmt.Errorf("unexpected result %q", result)
	}

	raw := v.Get("rates")
	if raw == nil {
		return nil, fmt.Errorf("missing rates object")
	}
	obj, err := raw.Object()
	if err != nil {
		return nil, fmt.Errorf("invalid rates object: %w", err)
	}

	rates := make(map[string]decimal.Decimal, obj.Len())
	obj.Visit(func(key []byte, rv *fastjson.Value) {
		code := utils.NormalizeCurrencyCode(string(key))
		if rv.Type() != fastjson.TypeNumber {
			c.logger.Warn("dropping non-numeric rate", zap.String("currency", code))
			return
		}
		// the raw token keeps the upstream's exact digits
		d, err := decimal.NewFromString(rv.String())
		if err != nil {
			c.logger.Warn("dropping unparseable rate", zap.String("currency", code), zap.Error(err))
			return
		}
		rates[code] = d
	})
	return rates, nil
}
