// services/reconcile.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"github.com/OluwaPella/Stage-two-bankend/utils"
	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

var errMissingName = errors.New("missing country name")

// Reconcile turns raw catalog entries into store writes, pairing each country
// with the rate of its first currency and an estimated GDP. Entries that
// cannot be read are logged and counted in the returned stats' Skipped; the
// batch itself never fails.
func Reconcile(entries []*fastjson.Value, rates map[string]decimal.Decimal, est *GdpEstimator, logger *zap.Logger) ([]models.CountryFields, models.RefreshStats) {
	var stats models.RefreshStats
	out := make([]models.CountryFields, 0, len(entries))

	for i, entry := range entries {
		fields, err := reconcileEntry(entry, rates, est)
		if err != nil {
			stats.Skipped++
			logger.Warn("skipping country entry",
				zap.Int("index", i),
				zap.String("name", entryName(entry)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, fields)
	}
	return out, stats
}

func reconcileEntry(entry *fastjson.Value, rates map[string]decimal.Decimal, est *GdpEstimator) (models.CountryFields, error) {
	var f models.CountryFields
	if entry == nil || entry.Type() != fastjson.TypeObject {
		return f, fmt.Errorf("entry is not an object")
	}

	f.Name = entryName(entry)
	if f.Name == "" {
		return f, errMissingName
	}

	population, err := readPopulation(entry.Get("population"))
	if err != nil {
		return f, err
	}
	f.Population = population

	if f.Capital, err = readFirstString(entry.Get("capital"), "capital"); err != nil {
		return f, err
	}
	if f.Region, err = readFirstString(entry.Get("region"), "region"); err != nil {
		return f, err
	}
	if f.FlagURL, err = readFlag(entry); err != nil {
		return f, err
	}
	if f.CurrencyCode, err = readCurrencyCode(entry.Get("currencies")); err != nil {
		return f, err
	}

	if f.CurrencyCode != nil {
		if r, ok := rates[*f.CurrencyCode]; ok {
			f.ExchangeRate = decimal.NewNullDecimal(r)
		}
	}
	// no currency and unknown currency both estimate to zero
	f.EstimatedGdp = decimal.NewNullDecimal(est.Estimate(f.Population, f.ExchangeRate))
	return f, nil
}

// entryName accepts the flat v2 name and the v3 {"common": ...} object.
func entryName(entry *fastjson.Value) string {
	if entry == nil {
		return ""
	}
	v := entry.Get("name")
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return strings.TrimSpace(string(v.GetStringBytes()))
	case fastjson.TypeObject:
		return strings.TrimSpace(string(v.GetStringBytes("common")))
	}
	return ""
}

func readPopulation(v *fastjson.Value) (int64, error) {
	if v == nil || v.Type() == fastjson.TypeNull {
		return 0, nil
	}
	if v.Type() != fastjson.TypeNumber {
		return 0, fmt.Errorf("population is %s, not a number", v.Type())
	}
	n, err := v.Int64()
	if err != nil {
		return 0, fmt.Errorf("population %s is not an integer", v.String())
	}
	if n < 0 {
		return 0, fmt.Errorf("population %d is negative", n)
	}
	return n, nil
}

// readFirstString reads a string, or the first element of an array of
// strings. Absent, null and blank values are nil.
func readFirstString(v *fastjson.Value, field string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	switch v.Type() {
	case fastjson.TypeNull:
		return nil, nil
	case fastjson.TypeString:
		return utils.NullIfEmpty(strings.TrimSpace(string(v.GetStringBytes()))), nil
	case fastjson.TypeArray:
		items := v.GetArray()
		if len(items) == 0 {
			return nil, nil
		}
		return readFirstString(items[0], field)
	}
	return nil, fmt.Errorf("%s is %s, not a string", field, v.Type())
}

func readFlag(entry *fastjson.Value) (*string, error) {
	flag, err := readFirstString(entry.Get("flag"), "flag")
	if err != nil || flag != nil {
		return flag, err
	}
	if flags := entry.Get("flags"); flags != nil && flags.Type() == fastjson.TypeObject {
		return readFirstString(flags.Get("png"), "flags.png")
	}
	return nil, nil
}

// readCurrencyCode returns the code of the first listed currency. It accepts
// the v2 shape [{"code": "NGN"}] and the v3 shape {"NGN": {...}}.
func readCurrencyCode(v *fastjson.Value) (*string, error) {
	if v == nil {
		return nil, nil
	}
	switch v.Type() {
	case fastjson.TypeNull:
		return nil, nil
	case fastjson.TypeArray:
		items := v.GetArray()
		if len(items) == 0 {
			return nil, nil
		}
		first := items[0]
		if first.Type() != fastjson.TypeObject {
			return nil, fmt.Errorf("currencies[0] is %s, not an object", first.Type())
		}
		return utils.NullIfEmpty(utils.NormalizeCurrencyCode(string(first.GetStringBytes("code")))), nil
	case fastjson.TypeObject:
		var code string
		v.GetObject().Visit(func(key []byte, _ *fastjson.Value) {
			if code == "" {
				code = utils.NormalizeCurrencyCode(string(key))
			}
		})
		return utils.NullIfEmpty(code), nil
	}
	return nil, fmt.Errorf("currencies is %s, not a list", v.Type())
}
