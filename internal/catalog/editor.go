package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

var ErrCustomPriceUnsupported = errors.New("custom pricing is not supported for this product")

// PolicyEdit is an authoring change to a product's pricing policy. Amounts
// are raw strings in the store locale; empty means unset.
type PolicyEdit struct {
	AllowCustomPrice       bool
	SuggestedPrice         string
	MinimumPrice           string
	MaximumPrice           string
	VariableBilling        bool
	SuggestedBillingPeriod string
	MinimumBillingPeriod   string
}

type Editor struct {
	store      Store
	syncer     *Syncer
	normalizer pricing.Normalizer
	logger     *slog.Logger
}

func NewEditor(store Store, syncer *Syncer, normalizer pricing.Normalizer, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		store:      store,
		syncer:     syncer,
		normalizer: normalizer,
		logger:     logger,
	}
}

// SavePolicy stores edit on productID. With custom pricing on, the stored
// prices follow the minimum so that sorting by price keeps working, and the
// sale price is cleared. Warnings never block the save.
func (e *Editor) SavePolicy(ctx context.Context, productID int64, edit PolicyEdit) (*Product, []pricing.Warning, error) {
	product, err := e.store.Product(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if product.Policy.IsParent() {
		return nil, nil, fmt.Errorf("product %d: %w", productID, ErrCustomPriceUnsupported)
	}

	suggested, err := e.amount("suggested price", edit.SuggestedPrice)
	if err != nil {
		return nil, nil, err
	}
	minimum, err := e.amount("minimum price", edit.MinimumPrice)
	if err != nil {
		return nil, nil, err
	}
	maximum, err := e.amount("maximum price", edit.MaximumPrice)
	if err != nil {
		return nil, nil, err
	}

	policy := product.Policy
	policy.AllowCustomPrice = edit.AllowCustomPrice
	policy.SuggestedPrice = suggested
	policy.MinimumPrice = minimum
	policy.MaximumPrice = maximum

	if sub, ok := policy.Kind.(pricing.Subscription); ok {
		sub.VariableBilling = edit.VariableBilling
		policy.Kind = sub

		if period, ok := pricing.ParsePeriod(edit.SuggestedBillingPeriod); ok && suggested.Valid {
			policy.SuggestedBillingPeriod = period
		}
		if period, ok := pricing.ParsePeriod(edit.MinimumBillingPeriod); ok {
			policy.MinimumBillingPeriod = period
		}
	}

	product.Policy = policy
	if policy.AllowCustomPrice {
		applyMinimumAsPrice(product)
	}

	if err := e.store.SaveProduct(ctx, product); err != nil {
		return nil, nil, fmt.Errorf("failed to save product %d: %w", productID, err)
	}

	var warnings []pricing.Warning
	if policy.AllowCustomPrice {
		warnings = policy.Warnings()
	}

	if product.ParentID != 0 && e.syncer != nil {
		if _, err := e.syncer.SyncPrices(ctx, product.ParentID); err != nil {
			return product, warnings, fmt.Errorf("failed to sync parent %d: %w", product.ParentID, err)
		}
	}

	e.logger.Info("pricing policy saved",
		"product_id", productID,
		"custom_price", policy.AllowCustomPrice,
		"warnings", len(warnings),
	)

	return product, warnings, nil
}

func (e *Editor) amount(field, raw string) (decimal.NullDecimal, error) {
	value, ok := e.normalizer.NormalizeOptional(raw)
	if !ok {
		return decimal.NullDecimal{}, fmt.Errorf("%s %q is not a number", field, raw)
	}
	if value.Valid && value.Decimal.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%s must be zero or positive", field)
	}
	return value, nil
}

// applyMinimumAsPrice mirrors the minimum into the stored prices of a custom
// price product. Variants without a minimum are stored at zero so that
// they still aggregate.
func applyMinimumAsPrice(product *Product) {
	price := product.Policy.MinimumPrice
	if !price.Valid && product.Policy.IsVariant() {
		price = decimal.NewNullDecimal(decimal.Zero)
	}

	product.Price = price
	product.RegularPrice = price
	product.SalePrice = decimal.NullDecimal{}
	if product.Policy.IsSubscription() {
		product.SubscriptionPrice = price
	}
}
