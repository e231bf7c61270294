// render/summary.go
package render

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// TopCount is how many countries the summary ranks.
const TopCount = 5

const (
	titleLine    = "COUNTRIES SUMMARY"
	topLine      = "Top 5 Countries by Estimated GDP:"
	updatedStamp = "2006-01-02 15:04:05"
)

// Source is the read side of the country store the summary is built from.
type Source interface {
	Count(ctx context.Context) (int, error)
	TopByGdp(ctx context.Context, n int) ([]models.Country, error)
}

type RankedCountry struct {
	Rank         int
	Name         string
	EstimatedGdp decimal.Decimal
}

// Summary is the content shared by every rendered form.
type Summary struct {
	TotalCountries int
	Top            []RankedCountry
	GeneratedAt    time.Time
}

// BuildSummary reads the totals and the GDP ranking from src.
func BuildSummary(ctx context.Context, src Source, generatedAt time.Time) (Summary, error) {
	total, err := src.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count countries for summary: %w", err)
	}
	top, err := src.TopByGdp(ctx, TopCount)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to rank countries for summary: %w", err)
	}

	s := Summary{TotalCountries: total, GeneratedAt: generatedAt.UTC()}
	for i, c := range top {
		s.Top = append(s.Top, RankedCountry{
			Rank:         i + 1,
			Name:         c.Name,
			EstimatedGdp: c.EstimatedGdp.Decimal,
		})
	}
	return s, nil
}

func (s Summary) TotalLine() string {
	return fmt.Sprintf("Total Countries: %d", s.TotalCountries)
}

func (s Summary) RankLines() []string {
	lines := make([]string, len(s.Top))
	for i, c := range s.Top {
		lines[i] = fmt.Sprintf("%d. %s: %s", c.Rank, c.Name, FormatMoney(c.EstimatedGdp))
	}
	return lines
}

func (s Summary) UpdatedLine() string {
	return "Last updated: " + s.GeneratedAt.UTC().Format(updatedStamp) + " UTC"
}

// Lines returns the summary in display order.
func (s Summary) Lines() []string {
	lines := []string{titleLine, s.TotalLine(), topLine}
	lines = append(lines, s.RankLines()...)
	return append(lines, s.UpdatedLine())
}

// FormatMoney renders d as dollars with thousands separators and cents,
// e.g. $1,234,567.89.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, cents, _ := strings.Cut(d.StringFixed(2), ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + "$" + d.StringFixed(2)
	}
	return sign + "$" + humanize.BigComma(n) + "." + cents
}
