package services

import (
	"context"
	"fmt"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

// ProductDisplay is what a storefront shows next to a product's price input.
type ProductDisplay struct {
	ProductID     int64            `json:"product_id"`
	Title         string           `json:"title"`
	CustomPrice   bool             `json:"custom_price"`
	Purchasable   bool             `json:"purchasable"`
	InitialPrice  string           `json:"initial_price,omitempty"`
	MinimumText   string           `json:"minimum_text,omitempty"`
	SuggestedText string           `json:"suggested_text,omitempty"`
	AnnualMinimum string           `json:"annual_minimum,omitempty"`
	Periods       []pricing.Period `json:"periods,omitempty"`
}

// Describe returns the display data of a product. Periods and the annual
// minimum are only filled for variable billing subscriptions.
func (s *CartService) Describe(ctx context.Context, productID int64) (ProductDisplay, error) {
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return ProductDisplay{}, fmt.Errorf("failed to load product: %w", err)
	}

	policy := product.Policy
	display := ProductDisplay{
		ProductID:   product.ID,
		Title:       product.Title,
		CustomPrice: policy.AllowCustomPrice,
		Purchasable: product.Purchasable(),
	}
	if !policy.AllowCustomPrice {
		return display, nil
	}

	formatter := s.validator.Formatter()
	if initial := policy.InitialPrice(); initial.Valid {
		display.InitialPrice = initial.Decimal.StringFixed(formatter.Decimals)
	}
	display.MinimumText = formatter.MinimumText(policy)
	display.SuggestedText = formatter.SuggestedText(policy)

	if policy.IsSubscription() && policy.VariableBillingPeriod() {
		display.Periods = pricing.Periods()
		if annual := policy.AnnualMinimum(s.validator.Factors()); annual.IsPositive() {
			display.AnnualMinimum = formatter.Amount(annual)
		}
	}
	return display, nil
}
