package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Formatter renders amounts the way the storefront displays them.
type Formatter struct {
	CurrencySymbol    string
	Decimals          int32
	ThousandSeparator string
	DecimalSeparator  string
}

func DefaultFormatter() Formatter {
	return Formatter{
		CurrencySymbol:    "$",
		Decimals:          2,
		ThousandSeparator: ",",
		DecimalSeparator:  ".",
	}
}

// Amount formats the absolute value of d with currency symbol and separators.
func (f Formatter) Amount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(f.Decimals)

	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	b.WriteString(f.CurrencySymbol)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(f.ThousandSeparator)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		sep := f.DecimalSeparator
		if sep == "" {
			sep = "."
		}
		b.WriteString(sep)
		b.WriteString(frac)
	}
	return b.String()
}

// PeriodPrice formats an amount charged every period, e.g. "$10.00 / week".
func (f Formatter) PeriodPrice(d decimal.Decimal, period Period) string {
	if period == "" {
		return f.Amount(d)
	}
	return f.Amount(d) + " / " + string(period)
}

// MinimumText returns the "Minimum Price" amount shown next to a product, or
// an empty string when the policy has no positive minimum.
func (f Formatter) MinimumText(p Policy) string {
	if !p.AllowCustomPrice || !p.hasMinimum() {
		return ""
	}
	if p.VariableBillingPeriod() {
		return f.PeriodPrice(p.MinimumPrice.Decimal, p.minimumPeriod())
	}
	return f.Amount(p.MinimumPrice.Decimal)
}

// SuggestedText is MinimumText for the suggested price.
func (f Formatter) SuggestedText(p Policy) string {
	if !p.AllowCustomPrice || !p.SuggestedPrice.Valid || !p.SuggestedPrice.Decimal.IsPositive() {
		return ""
	}
	if p.VariableBillingPeriod() {
		return f.PeriodPrice(p.SuggestedPrice.Decimal, p.suggestedPeriod())
	}
	return f.Amount(p.SuggestedPrice.Decimal)
}
