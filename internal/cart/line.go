// Package cart holds cart lines, the custom price adapter that rewrites
// their price snapshot, and the cart session stores.
package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/catalog"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

var (
	ErrInvalidTransition = errors.New("invalid cart line state transition")
	ErrLineNotFound      = errors.New("cart line not found")
)

type State string

const (
	// StateUnpriced is a freshly added custom price line.
	StateUnpriced State = "unpriced"
	// StateValidated holds an accepted price not yet written to the snapshot.
	StateValidated State = "validated"
	StatePriced    State = "priced"
)

// Snapshot is the product pricing copied onto a line when it is added.
type Snapshot struct {
	Price             decimal.NullDecimal `json:"price"`
	RegularPrice      decimal.NullDecimal `json:"regular_price"`
	SalePrice         decimal.NullDecimal `json:"sale_price"`
	SubscriptionPrice decimal.NullDecimal `json:"subscription_price"`
	BillingPeriod     pricing.Period      `json:"billing_period,omitempty"`
	BillingInterval   int                 `json:"billing_interval,omitempty"`
}

type Line struct {
	Key          uuid.UUID           `json:"key"`
	ProductID    int64               `json:"product_id"`
	VariantID    int64               `json:"variant_id,omitempty"`
	Title        string              `json:"title"`
	Quantity     int                 `json:"quantity"`
	CustomPrice  decimal.NullDecimal `json:"custom_price"`
	CustomPeriod pricing.Period      `json:"custom_period,omitempty"`
	Product      Snapshot            `json:"product"`
	State        State               `json:"state"`
}

// NewLine builds a line for product. Custom price products start Unpriced;
// every other product is priced from the catalog straight away.
func NewLine(product *catalog.Product, quantity int) *Line {
	line := &Line{
		Key:       uuid.New(),
		ProductID: product.ID,
		Title:     product.Title,
		Quantity:  quantity,
		Product: Snapshot{
			Price:             product.Price,
			RegularPrice:      product.RegularPrice,
			SalePrice:         product.SalePrice,
			SubscriptionPrice: product.SubscriptionPrice,
			BillingPeriod:     product.BillingPeriod,
			BillingInterval:   product.BillingInterval,
		},
		State: StatePriced,
	}
	if product.ParentID != 0 {
		line.ProductID = product.ParentID
		line.VariantID = product.ID
	}
	if product.Policy.AllowCustomPrice {
		line.State = StateUnpriced
	}
	return line
}

// PricingID is the catalog record whose policy governs the line.
func (l *Line) PricingID() int64 {
	if l.VariantID != 0 {
		return l.VariantID
	}
	return l.ProductID
}

// MarkValidated records an accepted price on an Unpriced line.
func (l *Line) MarkValidated(accepted pricing.Accepted) error {
	if l.State != StateUnpriced {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.State, StateValidated)
	}
	l.CustomPrice = decimal.NewNullDecimal(accepted.Price)
	l.CustomPeriod = accepted.Period
	l.State = StateValidated
	return nil
}

// Subtotal is the snapshot price times quantity, zero when unpriced.
func (l *Line) Subtotal() decimal.Decimal {
	if !l.Product.Price.Valid {
		return decimal.Zero
	}
	return l.Product.Price.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	ID        uuid.UUID `json:"id"`
	Lines     []*Line   `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCart() *Cart {
	return &Cart{ID: uuid.New()}
}

func (c *Cart) Line(key uuid.UUID) (*Line, error) {
	for _, line := range c.Lines {
		if line.Key == key {
			return line, nil
		}
	}
	return nil, fmt.Errorf("line %s: %w", key, ErrLineNotFound)
}

func (c *Cart) Remove(key uuid.UUID) bool {
	for i, line := range c.Lines {
		if line.Key == key {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func (c *Cart) clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Lines = make([]*Line, len(c.Lines))
	for i, line := range c.Lines {
		copied := *line
		clone.Lines[i] = &copied
	}
	return &clone
}
