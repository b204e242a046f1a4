package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   Period
		wantOK bool
	}{
		{raw: "week", want: PeriodWeek, wantOK: true},
		{raw: " Month ", want: PeriodMonth, wantOK: true},
		{raw: "YEAR", want: PeriodYear, wantOK: true},
		{raw: "fortnight", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, ok := ParsePeriod(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFactorTable_AnnualizeRoundTrip(t *testing.T) {
	t.Parallel()

	factors := DefaultFactors()
	prices := []decimal.Decimal{
		decimal.RequireFromString("0"),
		decimal.RequireFromString("2.5"),
		decimal.RequireFromString("10"),
		decimal.RequireFromString("1234.56"),
	}

	for _, period := range Periods() {
		for _, price := range prices {
			annual := factors.Annualize(price, period)
			factor, ok := factors.Factor(period)
			assert.True(t, ok, "period %s missing from default table", period)
			assert.True(t, annual.Div(factor).Equal(price), "%s round trip of %s gave %s", period, price, annual.Div(factor))
			assert.True(t, factors.Deannualize(annual, period).Equal(price))
		}
	}
}

func TestFactorTable_DefaultValues(t *testing.T) {
	t.Parallel()

	factors := DefaultFactors()
	ten := decimal.NewFromInt(10)
	assert.True(t, factors.Annualize(ten, PeriodDay).Equal(decimal.NewFromInt(3650)))
	assert.True(t, factors.Annualize(ten, PeriodWeek).Equal(decimal.NewFromInt(520)))
	assert.True(t, factors.Annualize(ten, PeriodMonth).Equal(decimal.NewFromInt(120)))
	assert.True(t, factors.Annualize(ten, PeriodYear).Equal(ten))
}

func TestFactorTable_UnknownPeriodPassesThrough(t *testing.T) {
	t.Parallel()

	factors := DefaultFactors()
	price := decimal.RequireFromString("7.25")
	assert.True(t, factors.Annualize(price, Period("fortnight")).Equal(price))
	assert.True(t, factors.Deannualize(price, Period("fortnight")).Equal(price))
}

func TestFactorTable_WithDoesNotMutate(t *testing.T) {
	t.Parallel()

	base := DefaultFactors()
	extended := base.With(Period("quarter"), decimal.NewFromInt(4))

	_, inBase := base.Factor(Period("quarter"))
	assert.False(t, inBase)
	factor, inExtended := extended.Factor(Period("quarter"))
	assert.True(t, inExtended)
	assert.True(t, factor.Equal(decimal.NewFromInt(4)))
}
