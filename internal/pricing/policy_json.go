package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type policyJSON struct {
	Kind                   string              `json:"kind"`
	VariableBilling        bool                `json:"variable_billing,omitempty"`
	AllowCustomPrice       bool                `json:"allow_custom_price"`
	SuggestedPrice         decimal.NullDecimal `json:"suggested_price"`
	MinimumPrice           decimal.NullDecimal `json:"minimum_price"`
	MaximumPrice           decimal.NullDecimal `json:"maximum_price"`
	SuggestedBillingPeriod Period              `json:"suggested_billing_period,omitempty"`
	MinimumBillingPeriod   Period              `json:"minimum_billing_period,omitempty"`
}

// MarshalJSON encodes Kind as its storage tag.
func (p Policy) MarshalJSON() ([]byte, error) {
	return json.Marshal(policyJSON{
		Kind:                   KindTag(p.Kind),
		VariableBilling:        p.VariableBillingPeriod(),
		AllowCustomPrice:       p.AllowCustomPrice,
		SuggestedPrice:         p.SuggestedPrice,
		MinimumPrice:           p.MinimumPrice,
		MaximumPrice:           p.MaximumPrice,
		SuggestedBillingPeriod: p.SuggestedBillingPeriod,
		MinimumBillingPeriod:   p.MinimumBillingPeriod,
	})
}

func (p *Policy) UnmarshalJSON(data []byte) error {
	var raw policyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	kind, err := ParseKind(raw.Kind, raw.VariableBilling)
	if err != nil {
		return err
	}

	*p = Policy{
		Kind:                   kind,
		AllowCustomPrice:       raw.AllowCustomPrice,
		SuggestedPrice:         raw.SuggestedPrice,
		MinimumPrice:           raw.MinimumPrice,
		MaximumPrice:           raw.MaximumPrice,
		SuggestedBillingPeriod: raw.SuggestedBillingPeriod,
		MinimumBillingPeriod:   raw.MinimumBillingPeriod,
	}
	return nil
}
