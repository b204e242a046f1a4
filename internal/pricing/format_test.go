package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Amount(t *testing.T) {
	t.Parallel()

	f := DefaultFormatter()
	assert.Equal(t, "$0.00", f.Amount(decimal.Zero))
	assert.Equal(t, "$9.99", f.Amount(decimal.RequireFromString("9.99")))
	assert.Equal(t, "$123.46", f.Amount(decimal.RequireFromString("123.456")))
	assert.Equal(t, "$1,234,567.00", f.Amount(decimal.NewFromInt(1234567)))
	assert.Equal(t, "$5.00", f.Amount(decimal.NewFromInt(-5)), "absolute value is shown")

	euro := Formatter{CurrencySymbol: "€", Decimals: 2, ThousandSeparator: ".", DecimalSeparator: ","}
	assert.Equal(t, "€1.234,50", euro.Amount(decimal.RequireFromString("1234.5")))

	whole := Formatter{CurrencySymbol: "¥", Decimals: 0, ThousandSeparator: ","}
	assert.Equal(t, "¥1,500", whole.Amount(decimal.NewFromInt(1500)))
}

func TestFormatter_PolicyTexts(t *testing.T) {
	t.Parallel()

	f := DefaultFormatter()

	simple := Policy{Kind: Simple{}, AllowCustomPrice: true, MinimumPrice: dec("10"), SuggestedPrice: dec("15")}
	assert.Equal(t, "$10.00", f.MinimumText(simple))
	assert.Equal(t, "$15.00", f.SuggestedText(simple))

	variable := variableSubscription()
	variable.SuggestedPrice = dec("3")
	variable.SuggestedBillingPeriod = PeriodWeek
	assert.Equal(t, "$10.00 / month", f.MinimumText(variable))
	assert.Equal(t, "$3.00 / week", f.SuggestedText(variable))

	assert.Empty(t, f.MinimumText(Policy{AllowCustomPrice: true}))
	assert.Empty(t, f.MinimumText(Policy{MinimumPrice: dec("10")}), "no text without custom pricing")
}
