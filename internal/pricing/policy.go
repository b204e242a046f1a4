package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductKind is the closed set of catalog item shapes the pricing rules
// distinguish between. Use a type switch to dispatch on it.
type ProductKind interface {
	isProductKind()
}

// Simple is a one-off purchase.
type Simple struct{}

// Subscription is a recurring product. With VariableBilling the buyer picks
// the billing period as well as the price.
type Subscription struct {
	VariableBilling bool
}

// ConfigurableParent owns purchasable variants and carries only aggregates.
type ConfigurableParent struct {
	Subscription bool
}

// ConfigurableVariant is a purchasable child of a ConfigurableParent.
type ConfigurableVariant struct {
	Subscription bool
}

func (Simple) isProductKind()              {}
func (Subscription) isProductKind()        {}
func (ConfigurableParent) isProductKind()  {}
func (ConfigurableVariant) isProductKind() {}

// ParseKind maps a storage type tag onto a ProductKind. variableBilling is
// only honoured for plain subscriptions.
func ParseKind(tag string, variableBilling bool) (ProductKind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "simple":
		return Simple{}, nil
	case "subscription":
		return Subscription{VariableBilling: variableBilling}, nil
	case "variable":
		return ConfigurableParent{}, nil
	case "variable-subscription":
		return ConfigurableParent{Subscription: true}, nil
	case "variation":
		return ConfigurableVariant{}, nil
	case "subscription_variation":
		return ConfigurableVariant{Subscription: true}, nil
	default:
		return nil, fmt.Errorf("unsupported product type: %s", tag)
	}
}

// KindTag is the inverse of ParseKind.
func KindTag(kind ProductKind) string {
	switch k := kind.(type) {
	case Subscription:
		return "subscription"
	case ConfigurableParent:
		if k.Subscription {
			return "variable-subscription"
		}
		return "variable"
	case ConfigurableVariant:
		if k.Subscription {
			return "subscription_variation"
		}
		return "variation"
	default:
		return "simple"
	}
}

// Policy is the pricing configuration attached to a product or variant.
type Policy struct {
	Kind                   ProductKind
	AllowCustomPrice       bool
	SuggestedPrice         decimal.NullDecimal
	MinimumPrice           decimal.NullDecimal
	MaximumPrice           decimal.NullDecimal
	SuggestedBillingPeriod Period
	MinimumBillingPeriod   Period
}

func (p Policy) IsSubscription() bool {
	switch k := p.Kind.(type) {
	case Subscription:
		return true
	case ConfigurableParent:
		return k.Subscription
	case ConfigurableVariant:
		return k.Subscription
	default:
		return false
	}
}

// VariableBillingPeriod reports whether the buyer chooses the billing period.
func (p Policy) VariableBillingPeriod() bool {
	sub, ok := p.Kind.(Subscription)
	return ok && sub.VariableBilling
}

// IsParent reports whether the policy belongs to a product with variants.
func (p Policy) IsParent() bool {
	_, ok := p.Kind.(ConfigurableParent)
	return ok
}

// IsVariant reports whether the policy belongs to a variant.
func (p Policy) IsVariant() bool {
	_, ok := p.Kind.(ConfigurableVariant)
	return ok
}

// hasMinimum treats a zero minimum as no floor at all.
func (p Policy) hasMinimum() bool {
	return p.MinimumPrice.Valid && !p.MinimumPrice.Decimal.IsZero()
}

func (p Policy) hasMaximum() bool {
	return p.MaximumPrice.Valid && !p.MaximumPrice.Decimal.IsZero()
}

func (p Policy) suggestedPeriod() Period {
	if p.SuggestedBillingPeriod != "" {
		return p.SuggestedBillingPeriod
	}
	return DefaultPeriod
}

func (p Policy) minimumPeriod() Period {
	if p.MinimumBillingPeriod != "" {
		return p.MinimumBillingPeriod
	}
	return DefaultPeriod
}

// InitialPrice is the value used to prefill the price input: the suggested
// price, then the minimum, then nothing.
func (p Policy) InitialPrice() decimal.NullDecimal {
	if p.SuggestedPrice.Valid {
		return p.SuggestedPrice
	}
	if p.MinimumPrice.Valid {
		return p.MinimumPrice
	}
	return decimal.NullDecimal{}
}

// AnnualMinimum returns the minimum expressed per year. Only meaningful for
// variable billing subscriptions; zero when no minimum is set.
func (p Policy) AnnualMinimum(factors FactorTable) decimal.Decimal {
	if !p.hasMinimum() || p.MinimumPrice.Decimal.IsNegative() {
		return decimal.Zero
	}
	return factors.Annualize(p.MinimumPrice.Decimal, p.minimumPeriod())
}

// Warning is a non-fatal problem found while authoring a policy.
type Warning string

const (
	WarnMinimumAboveSuggested Warning = "The minimum price should not be higher than the suggested price. Please review your prices."
	WarnMinimumAboveMaximum   Warning = "The minimum price should not be higher than the maximum price. Please review your prices."
)

// Warnings reports authoring problems. They never block a purchase.
func (p Policy) Warnings() []Warning {
	var warnings []Warning
	if p.SuggestedPrice.Valid && p.hasMinimum() && p.MinimumPrice.Decimal.GreaterThan(p.SuggestedPrice.Decimal) {
		warnings = append(warnings, WarnMinimumAboveSuggested)
	}
	if p.hasMaximum() && p.hasMinimum() && p.MinimumPrice.Decimal.GreaterThan(p.MaximumPrice.Decimal) {
		warnings = append(warnings, WarnMinimumAboveMaximum)
	}
	return warnings
}
