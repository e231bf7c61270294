// handlers/dto.go
package handlers

import (
	"encoding/json"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"github.com/shopspring/decimal"
)

// countryResponse is the JSON form of a stored country. Decimals are written
// as JSON numbers with their stored precision.
type countryResponse struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Capital         *string      `json:"capital"`
	Region          *string      `json:"region"`
	Population      int64        `json:"population"`
	CurrencyCode    *string      `json:"currency_code"`
	ExchangeRate    *json.Number `json:"exchange_rate"`
	EstimatedGdp    *json.Number `json:"estimated_gdp"`
	FlagURL         *string      `json:"flag_url"`
	LastRefreshedAt time.Time    `json:"last_refreshed_at"`
}

func toCountryResponse(c models.Country) countryResponse {
	return countryResponse{
		ID:              c.ID,
		Name:            c.Name,
		Capital:         c.Capital,
		Region:          c.Region,
		Population:      c.Population,
		CurrencyCode:    c.CurrencyCode,
		ExchangeRate:    jsonDecimal(c.ExchangeRate, -1),
		EstimatedGdp:    jsonDecimal(c.EstimatedGdp, 2),
		FlagURL:         c.FlagURL,
		LastRefreshedAt: c.LastRefreshedAt.UTC(),
	}
}

// jsonDecimal formats d with the given number of places, or as-is when
// places is negative.
func jsonDecimal(d decimal.NullDecimal, places int32) *json.Number {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	if places >= 0 {
		s = d.Decimal.StringFixed(places)
	}
	n := json.Number(s)
	return &n
}

// countryCSV is one row of the CSV export.
type countryCSV struct {
	Name            string  `csv:"name"`
	Capital         *string `csv:"capital"`
	Region          *string `csv:"region"`
	Population      int64   `csv:"population"`
	CurrencyCode    *string `csv:"currency_code"`
	ExchangeRate    string  `csv:"exchange_rate"`
	EstimatedGdp    string  `csv:"estimated_gdp"`
	FlagURL         *string `csv:"flag_url"`
	LastRefreshedAt string  `csv:"last_refreshed_at"`
}

func toCountryCSV(c models.Country) countryCSV {
	row := countryCSV{
		Name:            c.Name,
		Capital:         c.Capital,
		Region:          c.Region,
		Population:      c.Population,
		CurrencyCode:    c.CurrencyCode,
		FlagURL:         c.FlagURL,
		LastRefreshedAt: c.LastRefreshedAt.UTC().Format(time.RFC3339),
	}
	if c.ExchangeRate.Valid {
		row.ExchangeRate = c.ExchangeRate.Decimal.String()
	}
	if c.EstimatedGdp.Valid {
		row.EstimatedGdp = c.EstimatedGdp.Decimal.StringFixed(2)
	}
	return row
}

type refreshResponse struct {
	Message        string              `json:"message"`
	Stats          models.RefreshStats `json:"stats"`
	TotalCountries int                 `json:"total_countries"`
	RefreshedAt    time.Time           `json:"refreshed_at"`
}

type statusResponse struct {
	TotalCountries  int        `json:"total_countries"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

type textSummaryResponse struct {
	Message string `json:"message"`
	Summary string `json:"summary"`
}
