package cart

import (
	"github.com/shopspring/decimal"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

type Adapter struct{}

func NewAdapter() Adapter {
	return Adapter{}
}

// ApplyCustomPrice overwrites the line snapshot with an accepted price. The
// sale price equals the price so no discount is shown on a buyer-named
// price. A period frames the subscription as every 1 period. Applying the
// same price twice leaves the line unchanged.
func (Adapter) ApplyCustomPrice(line *Line, accepted pricing.Accepted) {
	price := decimal.NewNullDecimal(accepted.Price)

	line.CustomPrice = price
	line.Product.Price = price
	line.Product.RegularPrice = price
	line.Product.SalePrice = price
	line.Product.SubscriptionPrice = price

	if accepted.Period != "" {
		line.CustomPeriod = accepted.Period
		line.Product.BillingPeriod = accepted.Period
		line.Product.BillingInterval = 1
	}

	line.State = StatePriced
}
