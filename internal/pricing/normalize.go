package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Normalizer turns shopper-entered amounts into canonical decimals.
type Normalizer struct {
	ThousandSeparator string
	DecimalSeparator  string
}

func DefaultNormalizer() Normalizer {
	return Normalizer{ThousandSeparator: ",", DecimalSeparator: "."}
}

// Normalize parses raw using the configured locale separators. Input that
// cannot be read as a number yields an invalid NullDecimal.
func (n Normalizer) Normalize(raw string) decimal.NullDecimal {
	value := strings.TrimSpace(strings.ReplaceAll(raw, `\`, ""))
	if n.ThousandSeparator != "" && n.ThousandSeparator != n.DecimalSeparator {
		value = strings.ReplaceAll(value, n.ThousandSeparator, "")
	}
	if n.DecimalSeparator != "" && n.DecimalSeparator != "." {
		value = strings.ReplaceAll(value, n.DecimalSeparator, ".")
	}

	value = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, value)
	if value == "" {
		return decimal.NullDecimal{}
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(parsed)
}

// NormalizeOptional is Normalize for admin inputs where an empty field means
// "unset" rather than "invalid".
func (n Normalizer) NormalizeOptional(raw string) (decimal.NullDecimal, bool) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, true
	}
	value := n.Normalize(raw)
	return value, value.Valid
}
