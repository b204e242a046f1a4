package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	european := Normalizer{ThousandSeparator: ".", DecimalSeparator: ","}

	tests := []struct {
		name       string
		normalizer Normalizer
		raw        string
		want       string
		wantValid  bool
	}{
		{name: "plain", normalizer: DefaultNormalizer(), raw: "10.00", want: "10", wantValid: true},
		{name: "surrounding spaces", normalizer: DefaultNormalizer(), raw: "  9.99 ", want: "9.99", wantValid: true},
		{name: "thousands separator", normalizer: DefaultNormalizer(), raw: "1,234.50", want: "1234.5", wantValid: true},
		{name: "currency symbol dropped", normalizer: DefaultNormalizer(), raw: "$15", want: "15", wantValid: true},
		{name: "european locale", normalizer: european, raw: "1.234,50", want: "1234.5", wantValid: true},
		{name: "european decimals only", normalizer: european, raw: "9,99", want: "9.99", wantValid: true},
		{name: "escaped input", normalizer: DefaultNormalizer(), raw: `12\.5`, want: "12.5", wantValid: true},
		{name: "negative kept", normalizer: DefaultNormalizer(), raw: "-5", want: "-5", wantValid: true},
		{name: "exponent letter dropped", normalizer: DefaultNormalizer(), raw: "1e3", want: "13", wantValid: true},
		{name: "trailing letters dropped", normalizer: DefaultNormalizer(), raw: "12abc", want: "12", wantValid: true},
		{name: "letters between digits dropped", normalizer: DefaultNormalizer(), raw: "1o0", want: "10", wantValid: true},
		{name: "letters only", normalizer: DefaultNormalizer(), raw: "abc", wantValid: false},
		{name: "empty", normalizer: DefaultNormalizer(), raw: "", wantValid: false},
		{name: "two decimal points", normalizer: DefaultNormalizer(), raw: "1.2.3", wantValid: false},
		{name: "lone dash", normalizer: DefaultNormalizer(), raw: "-", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.normalizer.Normalize(tt.raw)
			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantValid {
				assert.Equal(t, tt.want, got.Decimal.String())
			}
		})
	}
}

func TestNormalizer_NormalizeOptional(t *testing.T) {
	t.Parallel()

	n := DefaultNormalizer()

	value, ok := n.NormalizeOptional("   ")
	assert.True(t, ok)
	assert.False(t, value.Valid)

	value, ok = n.NormalizeOptional("4.20")
	assert.True(t, ok)
	assert.Equal(t, "4.2", value.Decimal.String())

	_, ok = n.NormalizeOptional("n/a")
	assert.False(t, ok)
}
