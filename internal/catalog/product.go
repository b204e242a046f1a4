package catalog

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

var ErrProductNotFound = errors.New("product not found")

// Product is the typed pricing view of a catalog record. Stores populate it
// once at the boundary; nothing downstream reads raw metadata.
type Product struct {
	ID                int64               `json:"id"`
	ParentID          int64               `json:"parent_id,omitempty"`
	Title             string              `json:"title"`
	Policy            pricing.Policy      `json:"policy"`
	Price             decimal.NullDecimal `json:"price"`
	RegularPrice      decimal.NullDecimal `json:"regular_price"`
	SalePrice         decimal.NullDecimal `json:"sale_price"`
	SubscriptionPrice decimal.NullDecimal `json:"subscription_price"`
	// BillingPeriod and BillingInterval describe fixed-period subscriptions.
	BillingPeriod   pricing.Period `json:"billing_period,omitempty"`
	BillingInterval int            `json:"billing_interval,omitempty"`
	// StockLevel is nil when stock is not managed.
	StockLevel *int `json:"stock_level,omitempty"`
	Hidden     bool `json:"hidden,omitempty"`

	// Derived state, written by Syncer on parents only.
	HasCustomPriceVariants bool             `json:"has_custom_price_variants,omitempty"`
	Aggregates             *AggregateResult `json:"aggregates,omitempty"`
}

// Purchasable reports whether the product can be added to a cart. Custom
// price products need no stored price.
func (p *Product) Purchasable() bool {
	if p.Policy.IsParent() {
		return p.HasCustomPriceVariants || p.Price.Valid
	}
	return p.Policy.AllowCustomPrice || p.Price.Valid
}

// Snapshot returns the aggregation input for a variant.
func (p *Product) Snapshot() VariantSnapshot {
	var stock *int
	if p.StockLevel != nil {
		level := *p.StockLevel
		stock = &level
	}
	return VariantSnapshot{
		ID:           p.ID,
		Policy:       p.Policy,
		Price:        p.Price,
		RegularPrice: p.RegularPrice,
		SalePrice:    p.SalePrice,
		StockLevel:   stock,
	}
}

// Clone returns a deep copy safe to hand across goroutines.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.StockLevel != nil {
		level := *p.StockLevel
		clone.StockLevel = &level
	}
	if p.Aggregates != nil {
		aggregates := p.Aggregates.clone()
		clone.Aggregates = &aggregates
	}
	return &clone
}
