package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Period is a subscription billing period.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// DefaultPeriod is used when neither the buyer nor the policy names a period.
const DefaultPeriod = PeriodMonth

var knownPeriods = []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear}

// Periods returns the billing periods a buyer can choose from.
func Periods() []Period {
	return append([]Period(nil), knownPeriods...)
}

// ParsePeriod returns the recognized period named by s.
func ParsePeriod(s string) (Period, bool) {
	candidate := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range knownPeriods {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}

func (p Period) String() string {
	return string(p)
}

// FactorTable maps a billing period to its number of occurrences per year.
type FactorTable map[Period]decimal.Decimal

// DefaultFactors returns the standard day/week/month/year table.
func DefaultFactors() FactorTable {
	return FactorTable{
		PeriodDay:   decimal.NewFromInt(365),
		PeriodWeek:  decimal.NewFromInt(52),
		PeriodMonth: decimal.NewFromInt(12),
		PeriodYear:  decimal.NewFromInt(1),
	}
}

// With returns a copy of the table with period mapped to factor.
func (t FactorTable) With(period Period, factor decimal.Decimal) FactorTable {
	next := make(FactorTable, len(t)+1)
	for k, v := range t {
		next[k] = v
	}
	next[period] = factor
	return next
}

// Factor returns the occurrences per year for period.
func (t FactorTable) Factor(period Period) (decimal.Decimal, bool) {
	factor, ok := t[period]
	if !ok || !factor.IsPositive() {
		return decimal.Zero, false
	}
	return factor, true
}

// Annualize converts a per-period price to a yearly one. A period missing
// from the table leaves the price untouched.
func (t FactorTable) Annualize(price decimal.Decimal, period Period) decimal.Decimal {
	factor, ok := t.Factor(period)
	if !ok {
		return price
	}
	return price.Mul(factor)
}

// Deannualize converts a yearly price back to period. A period missing from
// the table leaves the price untouched.
func (t FactorTable) Deannualize(annual decimal.Decimal, period Period) decimal.Decimal {
	factor, ok := t.Factor(period)
	if !ok {
		return annual
	}
	return annual.Div(factor)
}
