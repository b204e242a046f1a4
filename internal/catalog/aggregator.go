package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

// PriceKind names one of the stored price fields of a variant.
type PriceKind string

const (
	KindPrice        PriceKind = "price"
	KindRegularPrice PriceKind = "regular_price"
	KindSalePrice    PriceKind = "sale_price"
)

// PriceKinds lists the kinds in the order they are aggregated.
var PriceKinds = []PriceKind{KindPrice, KindRegularPrice, KindSalePrice}

// VariantSnapshot is the aggregation input for one child of a configurable
// product, read from a single consistent catalog snapshot.
type VariantSnapshot struct {
	ID           int64
	Policy       pricing.Policy
	Price        decimal.NullDecimal
	RegularPrice decimal.NullDecimal
	SalePrice    decimal.NullDecimal
	StockLevel   *int
}

func (s VariantSnapshot) raw(kind PriceKind) decimal.NullDecimal {
	switch kind {
	case KindRegularPrice:
		return s.RegularPrice
	case KindSalePrice:
		return s.SalePrice
	default:
		return s.Price
	}
}

// Bounds is the min/max of one price kind and the variants holding them.
// Zero value means no variant contributed.
type Bounds struct {
	Min   decimal.NullDecimal `json:"min"`
	Max   decimal.NullDecimal `json:"max"`
	MinID int64               `json:"min_id,omitempty"`
	MaxID int64               `json:"max_id,omitempty"`
}

// AggregateResult is the derived pricing state of a configurable product.
type AggregateResult struct {
	HasAnyCustomPrice bool                 `json:"has_any_custom_price"`
	PerKind           map[PriceKind]Bounds `json:"per_kind"`
	// Price is the parent's displayed and sortable price: the overall
	// minimum of the price kind.
	Price decimal.NullDecimal `json:"price"`
}

// Bounds returns the aggregate for kind, zero when nothing contributed.
func (r AggregateResult) Bounds(kind PriceKind) Bounds {
	return r.PerKind[kind]
}

func (r AggregateResult) clone() AggregateResult {
	clone := r
	clone.PerKind = make(map[PriceKind]Bounds, len(r.PerKind))
	for kind, bounds := range r.PerKind {
		clone.PerKind[kind] = bounds
	}
	return clone
}

type Aggregator struct {
	HideOutOfStock      bool
	OutOfStockThreshold int
}

func NewAggregator(hideOutOfStock bool, outOfStockThreshold int) *Aggregator {
	return &Aggregator{
		HideOutOfStock:      hideOutOfStock,
		OutOfStockThreshold: outOfStockThreshold,
	}
}

// Recompute derives the min/max aggregates of children. Custom price
// children contribute their minimum price (zero when unset) instead of
// their stored prices.
func (a *Aggregator) Recompute(children []VariantSnapshot) AggregateResult {
	result := AggregateResult{
		HasAnyCustomPrice: a.HasCustomPriceVariants(children),
		PerKind:           make(map[PriceKind]Bounds, len(PriceKinds)),
	}

	for _, kind := range PriceKinds {
		var bounds Bounds
		for _, child := range children {
			if a.hidden(child) {
				continue
			}

			var contribution decimal.Decimal
			if child.Policy.AllowCustomPrice {
				if child.Policy.MinimumPrice.Valid {
					contribution = child.Policy.MinimumPrice.Decimal
				}
			} else {
				raw := child.raw(kind)
				if !raw.Valid {
					continue
				}
				contribution = raw.Decimal
			}

			if !bounds.Min.Valid || contribution.LessThan(bounds.Min.Decimal) {
				bounds.Min = decimal.NewNullDecimal(contribution)
				bounds.MinID = child.ID
			}
			if !bounds.Max.Valid || contribution.GreaterThan(bounds.Max.Decimal) {
				bounds.Max = decimal.NewNullDecimal(contribution)
				bounds.MaxID = child.ID
			}
		}
		result.PerKind[kind] = bounds
	}

	result.Price = result.PerKind[KindPrice].Min
	return result
}

// HasCustomPriceVariants is the membership test behind the parent's
// custom-price flag. Stock visibility does not affect it.
func (a *Aggregator) HasCustomPriceVariants(children []VariantSnapshot) bool {
	for _, child := range children {
		if child.Policy.AllowCustomPrice {
			return true
		}
	}
	return false
}

func (a *Aggregator) hidden(child VariantSnapshot) bool {
	return a.HideOutOfStock && child.StockLevel != nil && *child.StockLevel <= a.OutOfStockThreshold
}
