package catalog

import (
	"testing"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

const testCatalog = `
settings:
  hide_out_of_stock: true
  out_of_stock_threshold: 0
products:
  - id: 10
    title: "Donation"
    type: simple
    custom_price: true
    suggested_price: "15"
    minimum_price: "1,000.50"
  - id: 20
    title: "Monthly support"
    type: subscription
    custom_price: true
    variable_billing: true
    minimum_price: "10"
    minimum_billing_period: month
  - id: 30
    title: "T-shirt"
    type: variable
    variants:
      - id: 31
        title: "T-shirt - pay what you want"
        custom_price: true
        minimum_price: "5"
      - id: 32
        title: "T-shirt - fixed"
        price: "8"
        regular_price: "10"
        stock: 3
  - id: 40
    title: "Legacy record"
    meta:
      _nyp: "yes"
      _min_price: "2"
      _suggested_price: "4"
      _maximum_price: "100"
`

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name:    "valid catalog",
			yaml:    testCatalog,
			wantErr: false,
		},
		{
			name:    "invalid yaml",
			yaml:    "invalid: yaml: content:",
			wantErr: true,
		},
	}

	parser := NewParser(pricing.DefaultNormalizer())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := parser.ParseFromString(tt.yaml)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if file == nil {
				t.Error("expected catalog but got nil")
			}
		})
	}
}

func TestParser_Products(t *testing.T) {
	t.Parallel()

	parser := NewParser(pricing.DefaultNormalizer())
	file, err := parser.ParseFromString(testCatalog)
	if err != nil {
		t.Fatalf("ParseFromString() error = %v", err)
	}

	products, err := parser.Products(file)
	if err != nil {
		t.Fatalf("Products() error = %v", err)
	}
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}

	byID := make(map[int64]*Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	donation := byID[10]
	if !donation.Policy.AllowCustomPrice {
		t.Fatal("expected donation to allow custom price")
	}
	if got := donation.Policy.MinimumPrice.Decimal.String(); got != "1000.5" {
		t.Fatalf("expected normalized minimum 1000.5, got %s", got)
	}

	support := byID[20]
	if !support.Policy.VariableBillingPeriod() {
		t.Fatal("expected variable billing subscription")
	}
	if support.Policy.MinimumBillingPeriod != pricing.PeriodMonth {
		t.Fatalf("expected month minimum period, got %q", support.Policy.MinimumBillingPeriod)
	}

	if !byID[30].Policy.IsParent() {
		t.Fatal("expected product 30 to be a configurable parent")
	}
	variant := byID[32]
	if variant.ParentID != 30 || !variant.Policy.IsVariant() {
		t.Fatalf("expected variant of 30, got parent %d kind %T", variant.ParentID, variant.Policy.Kind)
	}
	if variant.StockLevel == nil || *variant.StockLevel != 3 {
		t.Fatalf("expected stock level 3, got %v", variant.StockLevel)
	}

	legacy := byID[40]
	if !legacy.Policy.AllowCustomPrice {
		t.Fatal("expected legacy meta to enable custom price")
	}
	if got := legacy.Policy.MaximumPrice.Decimal.String(); got != "100" {
		t.Fatalf("expected legacy maximum 100, got %s", got)
	}
	if got := legacy.Policy.SuggestedPrice.Decimal.String(); got != "4" {
		t.Fatalf("expected legacy suggested 4, got %s", got)
	}
}

func TestParser_ProductsRejectsBadAmounts(t *testing.T) {
	t.Parallel()

	parser := NewParser(pricing.DefaultNormalizer())

	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "not a number",
			yaml: `
products:
  - id: 1
    title: "Broken"
    minimum_price: "abc"
`,
		},
		{
			name: "negative",
			yaml: `
products:
  - id: 1
    title: "Broken"
    price: "-4"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			file, err := parser.ParseFromString(tt.yaml)
			if err != nil {
				t.Fatalf("ParseFromString() error = %v", err)
			}
			if _, err := parser.Products(file); err == nil {
				t.Fatal("expected error but got none")
			}
		})
	}
}
