package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/cart"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/catalog"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func testProducts() []*catalog.Product {
	return []*catalog.Product{
		{
			ID: 1, Title: "Donation",
			Policy: pricing.Policy{
				Kind:             pricing.Simple{},
				AllowCustomPrice: true,
				MinimumPrice:     amount("10"),
				SuggestedPrice:   amount("15"),
			},
			Price: amount("10"),
		},
		{
			ID: 2, Title: "Monthly support",
			Policy: pricing.Policy{
				Kind:                 pricing.Subscription{VariableBilling: true},
				AllowCustomPrice:     true,
				MinimumPrice:         amount("10"),
				MinimumBillingPeriod: pricing.PeriodMonth,
			},
			BillingPeriod:   pricing.PeriodMonth,
			BillingInterval: 1,
		},
		{
			ID: 3, Title: "Sticker",
			Policy: pricing.Policy{Kind: pricing.Simple{}},
			Price:  amount("2"),
		},
		{
			ID: 4, Title: "Unpriced",
			Policy: pricing.Policy{Kind: pricing.Simple{}},
		},
	}
}

type testCartService struct {
	service  *CartService
	products *catalog.MemoryStore
	carts    *cart.MemoryStore
}

func newTestCartService() testCartService {
	products := catalog.NewMemoryStore(testProducts()...)
	carts := cart.NewMemoryStore()
	validator := pricing.NewValidator(pricing.ValidatorConfig{})
	return testCartService{
		service:  NewCartService(products, carts, validator, cart.NewAdapter(), time.Hour, nil),
		products: products,
		carts:    carts,
	}
}

func TestCartService_AddToCart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     AddToCartInput
		wantErr   error
		wantPrice string
	}{
		{name: "below minimum", input: AddToCartInput{ProductID: 1, Quantity: 1, Price: "9.99"}, wantErr: pricing.ErrBelowMinimum},
		{name: "at minimum", input: AddToCartInput{ProductID: 1, Quantity: 1, Price: "10.00"}, wantPrice: "10"},
		{name: "not a number", input: AddToCartInput{ProductID: 1, Quantity: 1, Price: "abc"}, wantErr: pricing.ErrInvalidPrice},
		{name: "fixed price product", input: AddToCartInput{ProductID: 3, Quantity: 2, Price: "0.01"}, wantPrice: "2"},
		{name: "not purchasable", input: AddToCartInput{ProductID: 4, Quantity: 1}, wantErr: ErrNotPurchasable},
		{name: "missing product", input: AddToCartInput{ProductID: 99, Quantity: 1}, wantErr: catalog.ErrProductNotFound},
		{name: "zero quantity", input: AddToCartInput{ProductID: 1, Price: "20"}, wantErr: ErrInvalidQuantity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestCartService()
			c, line, err := svc.service.AddToCart(context.Background(), tc.input)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("AddToCart() error = %v, want %v", err, tc.wantErr)
				}
				if c != nil {
					t.Fatal("expected no cart on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("AddToCart() error = %v", err)
			}

			if got := line.Product.Price.Decimal; !got.Equal(decimal.RequireFromString(tc.wantPrice)) {
				t.Fatalf("expected line price %s, got %s", tc.wantPrice, got)
			}
			if line.State != cart.StatePriced {
				t.Fatalf("expected priced line, got %s", line.State)
			}

			stored, err := svc.carts.Get(context.Background(), c.ID)
			if err != nil {
				t.Fatalf("expected cart to be stored: %v", err)
			}
			if len(stored.Lines) != 1 {
				t.Fatalf("expected one stored line, got %d", len(stored.Lines))
			}
		})
	}
}

func TestCartService_AddToCartRejectionMessage(t *testing.T) {
	t.Parallel()

	svc := newTestCartService()
	_, _, err := svc.service.AddToCart(context.Background(), AddToCartInput{ProductID: 1, Quantity: 1, Price: "9.99"})

	var priceErr *pricing.PriceError
	if !errors.As(err, &priceErr) {
		t.Fatalf("expected *pricing.PriceError, got %T", err)
	}
	want := `"Donation" could not be added to the cart: Please enter at least $10.00.`
	if priceErr.Error() != want {
		t.Fatalf("unexpected message %q", priceErr.Error())
	}
}

func TestCartService_AddToCartVariableBilling(t *testing.T) {
	t.Parallel()

	svc := newTestCartService()
	ctx := context.Background()

	if _, _, err := svc.service.AddToCart(ctx, AddToCartInput{ProductID: 2, Quantity: 1, Price: "2", Period: "week"}); !errors.Is(err, pricing.ErrBelowMinimum) {
		t.Fatalf("expected weekly 2 to be below a monthly 10, got %v", err)
	}

	c, line, err := svc.service.AddToCart(ctx, AddToCartInput{ProductID: 2, Quantity: 1, Price: "3", Period: "week"})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	if line.Product.BillingPeriod != pricing.PeriodWeek || line.Product.BillingInterval != 1 {
		t.Fatalf("expected every 1 week, got every %d %s", line.Product.BillingInterval, line.Product.BillingPeriod)
	}

	again, _, err := svc.service.AddToCart(ctx, AddToCartInput{CartID: c.ID, ProductID: 2, Quantity: 1, Price: "3", Period: "week"})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	if len(again.Lines) != 2 || again.Lines[0].Key == again.Lines[1].Key {
		t.Fatal("expected re-adding to create a separate line")
	}
}

func TestCartService_Restore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestCartService()

	c, line, err := svc.service.AddToCart(ctx, AddToCartInput{ProductID: 2, Quantity: 1, Price: "200", Period: "year"})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	// Simulate a session written before the product's prices changed.
	stored, _ := svc.carts.Get(ctx, c.ID)
	stored.Lines[0].Product.Price = amount("10")
	stored.Lines[0].Product.BillingPeriod = pricing.PeriodMonth
	if err := svc.carts.Set(ctx, stored, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	restored, err := svc.service.Restore(ctx, c.ID)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	got := restored.Lines[0]
	if got.Key != line.Key {
		t.Fatal("expected the same line after restore")
	}
	if !got.Product.Price.Decimal.Equal(decimal.NewFromInt(200)) || got.Product.BillingPeriod != pricing.PeriodYear {
		t.Fatalf("expected custom price 200 per year, got %s per %s", got.Product.Price.Decimal, got.Product.BillingPeriod)
	}
}

func TestCartService_RestoreDropsUnknownPeriod(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestCartService()

	c, _, err := svc.service.AddToCart(ctx, AddToCartInput{ProductID: 2, Quantity: 1, Price: "200", Period: "year"})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	stored, _ := svc.carts.Get(ctx, c.ID)
	stored.Lines[0].CustomPeriod = "fortnight"
	_ = svc.carts.Set(ctx, stored, time.Hour)

	restored, err := svc.service.Restore(ctx, c.ID)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored.Lines[0].CustomPeriod != "" {
		t.Fatalf("expected unrecognized period to be dropped, got %q", restored.Lines[0].CustomPeriod)
	}
}

func TestCartService_RestoreSkipsDisabledCustomPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestCartService()

	c, _, err := svc.service.AddToCart(ctx, AddToCartInput{ProductID: 1, Quantity: 1, Price: "40"})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	product, _ := svc.products.Product(ctx, 1)
	product.Policy.AllowCustomPrice = false
	_ = svc.products.SaveProduct(ctx, product)

	stored, _ := svc.carts.Get(ctx, c.ID)
	stored.Lines[0].Product.Price = amount("10")
	_ = svc.carts.Set(ctx, stored, time.Hour)

	restored, err := svc.service.Restore(ctx, c.ID)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if got := restored.Lines[0].Product.Price.Decimal; !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected stored price to be left alone, got %s", got)
	}

	if _, err := svc.service.Restore(ctx, uuid.New()); !errors.Is(err, cart.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartService_UpdateQuantityDoesNotRevalidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestCartService()

	c, line, err := svc.service.AddToCart(ctx, AddToCartInput{ProductID: 1, Quantity: 1, Price: "12"})
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	product, _ := svc.products.Product(ctx, 1)
	product.Policy.MinimumPrice = amount("100")
	_ = svc.products.SaveProduct(ctx, product)

	updated, err := svc.service.UpdateQuantity(ctx, c.ID, line.Key, 3)
	if err != nil {
		t.Fatalf("UpdateQuantity() error = %v", err)
	}
	if got := updated.Total(); !got.Equal(decimal.NewFromInt(36)) {
		t.Fatalf("expected total 36, got %s", got)
	}

	emptied, err := svc.service.UpdateQuantity(ctx, c.ID, line.Key, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity() error = %v", err)
	}
	if len(emptied.Lines) != 0 {
		t.Fatalf("expected line removal, got %d lines", len(emptied.Lines))
	}

	if _, err := svc.service.UpdateQuantity(ctx, c.ID, line.Key, 0); !errors.Is(err, cart.ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestCartService_OrderAgain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestCartService()

	c, line, err := svc.service.OrderAgain(ctx, uuid.Nil, OrderLine{
		ProductID:          2,
		Quantity:           3,
		Subtotal:           decimal.NewFromInt(45),
		SubscriptionPeriod: "week",
	})
	if err != nil {
		t.Fatalf("OrderAgain() error = %v", err)
	}
	if !line.CustomPrice.Decimal.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected unit price 15, got %s", line.CustomPrice.Decimal)
	}
	if line.CustomPeriod != pricing.PeriodWeek || line.Product.BillingInterval != 1 {
		t.Fatalf("expected weekly billing, got every %d %s", line.Product.BillingInterval, line.CustomPeriod)
	}
	if !c.Total().Equal(decimal.NewFromInt(45)) {
		t.Fatalf("expected total 45, got %s", c.Total())
	}

	_, fixed, err := svc.service.OrderAgain(ctx, c.ID, OrderLine{ProductID: 3, Quantity: 1, Subtotal: decimal.NewFromInt(99)})
	if err != nil {
		t.Fatalf("OrderAgain() error = %v", err)
	}
	if fixed.CustomPrice.Valid || !fixed.Product.Price.Decimal.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected catalog price for fixed product, got %+v", fixed.Product.Price)
	}
}

func TestCartService_OrderAgainRoundsUnitPrice(t *testing.T) {
	t.Parallel()

	svc := newTestCartService()

	_, line, err := svc.service.OrderAgain(context.Background(), uuid.Nil, OrderLine{
		ProductID: 1,
		Quantity:  3,
		Subtotal:  decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("OrderAgain() error = %v", err)
	}

	want := decimal.RequireFromString("3.33")
	if !line.CustomPrice.Decimal.Equal(want) || !line.Product.Price.Decimal.Equal(want) {
		t.Fatalf("expected unit price 3.33, got %s", line.CustomPrice.Decimal)
	}
	if got := line.Subtotal(); !got.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("expected subtotal 9.99, got %s", got)
	}
}
