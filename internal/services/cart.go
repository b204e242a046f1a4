package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/cart"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/catalog"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/logging"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/observability"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

var (
	ErrNotPurchasable  = errors.New("product cannot be purchased")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

type productStore interface {
	Product(ctx context.Context, id int64) (*catalog.Product, error)
}

type priceValidator interface {
	Validate(input pricing.Submission, policy pricing.Policy, productTitle string, rules ...pricing.Rule) (pricing.Accepted, error)
	RecognizePeriod(raw string) (pricing.Period, bool)
	Formatter() pricing.Formatter
	Factors() pricing.FactorTable
}

type linePricer interface {
	ApplyCustomPrice(line *cart.Line, accepted pricing.Accepted)
}

type CartService struct {
	products  productStore
	carts     cart.Store
	validator priceValidator
	pricer    linePricer
	rules     []pricing.Rule
	ttl       time.Duration
	logger    *slog.Logger
}

func NewCartService(products productStore, carts cart.Store, validator priceValidator, pricer linePricer, ttl time.Duration, logger *slog.Logger, rules ...pricing.Rule) *CartService {
	return &CartService{
		products:  products,
		carts:     carts,
		validator: validator,
		pricer:    pricer,
		rules:     rules,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *CartService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type AddToCartInput struct {
	CartID    uuid.UUID
	ProductID int64
	Quantity  int
	Price     string
	Period    string
}

// AddToCart validates a buyer-named price and adds a new line. A rejected
// price leaves the cart untouched and returns the *pricing.PriceError.
func (s *CartService) AddToCart(ctx context.Context, input AddToCartInput) (*cart.Cart, *cart.Line, error) {
	span := sentry.StartSpan(
		ctx,
		"service.cart.add_to_cart",
		sentry.WithOpName("service.cart"),
		sentry.WithDescription("AddToCart"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)

	if input.Quantity <= 0 {
		return nil, nil, ErrInvalidQuantity
	}

	product, err := s.products.Product(ctx, input.ProductID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.Policy.IsParent() || !product.Purchasable() {
		return nil, nil, fmt.Errorf("product %d: %w", product.ID, ErrNotPurchasable)
	}

	line := cart.NewLine(product, input.Quantity)

	if product.Policy.AllowCustomPrice {
		accepted, err := s.validator.Validate(pricing.Submission{Price: input.Price, Period: input.Period}, product.Policy, product.Title, s.rules...)
		if err != nil {
			var priceErr *pricing.PriceError
			reason := "rule"
			if errors.As(err, &priceErr) {
				reason = string(priceErr.Code)
			}
			observability.PriceRejected(ctx, product.ID, reason)
			logger.Info("custom price rejected", "product_id", product.ID, "reason", reason)
			return nil, nil, err
		}

		if err := line.MarkValidated(accepted); err != nil {
			return nil, nil, err
		}
		s.pricer.ApplyCustomPrice(line, accepted)
		observability.PriceAccepted(ctx, product.ID)
	}

	c, err := s.loadOrCreate(ctx, input.CartID)
	if err != nil {
		return nil, nil, err
	}
	c.Lines = append(c.Lines, line)

	if err := s.save(ctx, c); err != nil {
		return nil, nil, err
	}

	logger.Info("line added to cart",
		"cart_id", c.ID.String(),
		"product_id", product.ID,
		"custom_price", line.CustomPrice.Valid,
		"period", string(line.CustomPeriod),
	)

	return c, line, nil
}

// Restore reloads a cart session and re-applies each stored custom price
// whose product still allows one. Stored periods are kept only when they
// are still recognized.
func (s *CartService) Restore(ctx context.Context, cartID uuid.UUID) (*cart.Cart, error) {
	span := sentry.StartSpan(
		ctx,
		"service.cart.restore",
		sentry.WithOpName("service.cart"),
		sentry.WithDescription("Restore"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	for _, line := range c.Lines {
		if !line.CustomPrice.Valid {
			continue
		}

		product, err := s.products.Product(ctx, line.PricingID())
		if err != nil {
			logger.Warn("failed to load product for cart line", "cart_id", cartID.String(), "product_id", line.PricingID(), "error", err)
			continue
		}
		if !product.Policy.AllowCustomPrice {
			logger.Info("product no longer allows custom price", "cart_id", cartID.String(), "product_id", product.ID)
			continue
		}

		accepted := pricing.Accepted{Price: line.CustomPrice.Decimal}
		if period, ok := s.validator.RecognizePeriod(string(line.CustomPeriod)); ok {
			accepted.Period = period
		}
		line.CustomPeriod = accepted.Period
		s.pricer.ApplyCustomPrice(line, accepted)
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity changes a line's quantity without validating its price
// again. A quantity of zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, lineKey uuid.UUID, quantity int) (*cart.Cart, error) {
	span := sentry.StartSpan(
		ctx,
		"service.cart.update_quantity",
		sentry.WithOpName("service.cart"),
		sentry.WithDescription("UpdateQuantity"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if !c.Remove(lineKey) {
			return nil, fmt.Errorf("line %s: %w", lineKey, cart.ErrLineNotFound)
		}
	} else {
		line, err := c.Line(lineKey)
		if err != nil {
			return nil, err
		}
		line.Quantity = quantity
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// OrderLine is a line of a previous order as the order collaborator stores it.
type OrderLine struct {
	ProductID          int64
	VariantID          int64
	Quantity           int
	Subtotal           decimal.Decimal
	SubscriptionPeriod string
}

// OrderAgain adds a previous order line to a cart. A custom price line gets
// the unit price it was bought at, rounded to the store's price decimals; a
// variable billing subscription also gets the period of the subscription it
// created.
func (s *CartService) OrderAgain(ctx context.Context, cartID uuid.UUID, previous OrderLine) (*cart.Cart, *cart.Line, error) {
	span := sentry.StartSpan(
		ctx,
		"service.cart.order_again",
		sentry.WithOpName("service.cart"),
		sentry.WithDescription("OrderAgain"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	if previous.Quantity <= 0 {
		return nil, nil, ErrInvalidQuantity
	}

	productID := previous.ProductID
	if previous.VariantID != 0 {
		productID = previous.VariantID
	}
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load product: %w", err)
	}

	line := cart.NewLine(product, previous.Quantity)
	if product.Policy.AllowCustomPrice {
		unit := previous.Subtotal.Div(decimal.NewFromInt(int64(previous.Quantity)))
		accepted := pricing.Accepted{
			Price: unit.Round(s.validator.Formatter().Decimals),
		}
		if product.Policy.VariableBillingPeriod() {
			if period, ok := s.validator.RecognizePeriod(previous.SubscriptionPeriod); ok {
				accepted.Period = period
			}
		}
		if err := line.MarkValidated(accepted); err != nil {
			return nil, nil, err
		}
		s.pricer.ApplyCustomPrice(line, accepted)
	}

	c, err := s.loadOrCreate(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	c.Lines = append(c.Lines, line)

	if err := s.save(ctx, c); err != nil {
		return nil, nil, err
	}

	s.loggerFromContext(ctx).Info("order line added again",
		"cart_id", c.ID.String(),
		"product_id", product.ID,
		"custom_price", line.CustomPrice.Valid,
	)
	return c, line, nil
}

func (s *CartService) loadOrCreate(ctx context.Context, cartID uuid.UUID) (*cart.Cart, error) {
	if cartID == uuid.Nil {
		return cart.NewCart(), nil
	}

	c, err := s.carts.Get(ctx, cartID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return &cart.Cart{ID: cartID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

func (s *CartService) save(ctx context.Context, c *cart.Cart) error {
	c.UpdatedAt = time.Now().UTC()
	if err := s.carts.Set(ctx, c, s.ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
