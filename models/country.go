// models/country.go
package models

import (
	"strings"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/shopspring/decimal"
)

// CountryFields are the mutable columns written by an upsert.
type CountryFields struct {
	Name         string              `db:"name"`
	Capital      *string             `db:"capital"`
	Region       *string             `db:"region"`
	Population   int64               `db:"population"`
	CurrencyCode *string             `db:"currency_code"`
	ExchangeRate decimal.NullDecimal `db:"exchange_rate"` // DECIMAL(20,6), set only when the currency resolved
	EstimatedGdp decimal.NullDecimal `db:"estimated_gdp"` // DECIMAL(30,2)
	FlagURL      *string             `db:"flag_url"`
}

// Country is one stored country record. Name is unique case-insensitively.
type Country struct {
	ID int64 `db:"id"`
	CountryFields
	LastRefreshedAt time.Time `db:"last_refreshed_at"`
}

// Apply overwrites every mutable field of c with the values in f. The stored
// display name is kept; f.Name only identifies the record.
func (c *Country) Apply(f CountryFields) {
	if c.Name == "" {
		c.Name = f.Name
	}
	c.Capital = f.Capital
	c.Region = f.Region
	c.Population = f.Population
	c.CurrencyCode = f.CurrencyCode
	c.ExchangeRate = f.ExchangeRate
	c.EstimatedGdp = f.EstimatedGdp
	c.FlagURL = f.FlagURL
}

// SortOrder is one of the list orderings accepted by the store.
type SortOrder string

const (
	SortNameAsc        SortOrder = "name_asc"
	SortNameDesc       SortOrder = "name_desc"
	SortPopulationAsc  SortOrder = "population_asc"
	SortPopulationDesc SortOrder = "population_desc"
	SortGdpAsc         SortOrder = "gdp_asc"
	SortGdpDesc        SortOrder = "gdp_desc"
)

// SortOrders lists every accepted value, default first.
var SortOrders = []SortOrder{
	SortNameAsc, SortNameDesc,
	SortPopulationAsc, SortPopulationDesc,
	SortGdpAsc, SortGdpDesc,
}

// ExcludesMissingGdp reports whether records without an estimated GDP are
// dropped from the result rather than ordered.
func (s SortOrder) ExcludesMissingGdp() bool {
	return s == SortGdpAsc || s == SortGdpDesc
}

// ParseSortOrder maps a query value to a SortOrder. The empty string selects
// the default name_asc.
func ParseSortOrder(raw string) (SortOrder, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return SortNameAsc, nil
	}
	for _, s := range SortOrders {
		if string(s) == raw {
			return s, nil
		}
	}

	names := make([]string, len(SortOrders))
	for i, s := range SortOrders {
		names[i] = string(s)
	}
	return "", xerrors.NewValidationError("sort", "must be one of "+strings.Join(names, ", "))
}

// CountryFilter narrows a list query. Empty strings mean "no filter".
type CountryFilter struct {
	Region       string
	CurrencyCode string
	Sort         SortOrder
	Limit        int // 0 = unlimited
}
