package models

import (
	"testing"

	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCountryApply(t *testing.T) {
	c := Country{
		ID: 7,
		CountryFields: CountryFields{
			Name:         "Canada",
			Capital:      strPtr("Ottawa"),
			Population:   38000000,
			CurrencyCode: strPtr("CAD"),
			ExchangeRate: decimal.NewNullDecimal(decimal.RequireFromString("1.35")),
			EstimatedGdp: decimal.NewNullDecimal(decimal.RequireFromString("42.00")),
		},
	}

	c.Apply(CountryFields{
		Name:       "CANADA",
		Region:     strPtr("Americas"),
		Population: 39000000,
	})

	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "Canada", c.Name, "display name is kept")
	assert.Nil(t, c.Capital, "absent fields overwrite with nil")
	assert.Equal(t, "Americas", *c.Region)
	assert.Equal(t, int64(39000000), c.Population)
	assert.Nil(t, c.CurrencyCode)
	assert.False(t, c.ExchangeRate.Valid)
	assert.False(t, c.EstimatedGdp.Valid)
}

func TestCountryApply_EmptyName(t *testing.T) {
	var c Country
	c.Apply(CountryFields{Name: "Testland", Population: 1})
	assert.Equal(t, "Testland", c.Name)
}

func TestSortOrderExcludesMissingGdp(t *testing.T) {
	for _, s := range SortOrders {
		want := s == SortGdpAsc || s == SortGdpDesc
		assert.Equal(t, want, s.ExcludesMissingGdp(), string(s))
	}
}

func TestParseSortOrder(t *testing.T) {
	s, err := ParseSortOrder("")
	assert.NoError(t, err)
	assert.Equal(t, SortNameAsc, s)

	s, err = ParseSortOrder(" GDP_DESC ")
	assert.NoError(t, err)
	assert.Equal(t, SortGdpDesc, s)

	_, err = ParseSortOrder("area_desc")
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}
