// Package catalog holds the typed product records, the variant aggregator
// and the stores and editors that keep derived parent state in sync.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

type CatalogFile struct {
	Settings SettingsConfig  `yaml:"settings"`
	Products []ProductConfig `yaml:"products" validate:"dive"`
}

type SettingsConfig struct {
	HideOutOfStock      bool `yaml:"hide_out_of_stock"`
	OutOfStockThreshold int  `yaml:"out_of_stock_threshold"`
}

type ProductConfig struct {
	ID    int64  `yaml:"id" validate:"required,gt=0"`
	Title string `yaml:"title" validate:"required"`
	Type  string `yaml:"type" validate:"omitempty,oneof=simple subscription variable variable-subscription variation subscription_variation"`

	CustomPrice            *bool  `yaml:"custom_price"`
	SuggestedPrice         string `yaml:"suggested_price"`
	MinimumPrice           string `yaml:"minimum_price"`
	MaximumPrice           string `yaml:"maximum_price"`
	VariableBilling        *bool  `yaml:"variable_billing"`
	SuggestedBillingPeriod string `yaml:"suggested_billing_period" validate:"omitempty,oneof=day week month year"`
	MinimumBillingPeriod   string `yaml:"minimum_billing_period" validate:"omitempty,oneof=day week month year"`

	Price         string `yaml:"price"`
	RegularPrice  string `yaml:"regular_price"`
	SalePrice     string `yaml:"sale_price"`
	BillingPeriod string `yaml:"billing_period" validate:"omitempty,oneof=day week month year"`
	Stock         *int   `yaml:"stock"`
	Hidden        bool   `yaml:"hidden"`

	// Meta carries records exported from older catalog storage, where the
	// pricing policy lives in underscore-prefixed metadata keys. Typed
	// fields above take precedence.
	Meta map[string]string `yaml:"meta"`

	Variants []ProductConfig `yaml:"variants" validate:"dive"`
}

type Parser struct {
	normalizer pricing.Normalizer
}

func NewParser(normalizer pricing.Normalizer) *Parser {
	return &Parser{normalizer: normalizer}
}

func (p *Parser) Parse(content []byte) (*CatalogFile, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &file, nil
}

func (p *Parser) ParseFromString(content string) (*CatalogFile, error) {
	return p.Parse([]byte(content))
}

// Products flattens the file into typed records. Variants inherit nothing
// from their parent except ParentID and, for subscription parents, the
// subscription kind.
func (p *Parser) Products(file *CatalogFile) ([]*Product, error) {
	if file == nil {
		return nil, fmt.Errorf("catalog file is required")
	}

	products := make([]*Product, 0, len(file.Products))
	for _, cfg := range file.Products {
		parent, err := p.product(cfg, 0, "")
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", cfg.ID, err)
		}
		products = append(products, parent)

		variantType := "variation"
		if parent.Policy.IsSubscription() {
			variantType = "subscription_variation"
		}
		for _, variantCfg := range cfg.Variants {
			variant, err := p.product(variantCfg, parent.ID, variantType)
			if err != nil {
				return nil, fmt.Errorf("variant %d of product %d: %w", variantCfg.ID, cfg.ID, err)
			}
			products = append(products, variant)
		}
	}
	return products, nil
}

func (p *Parser) product(cfg ProductConfig, parentID int64, forcedType string) (*Product, error) {
	fields := policyFields(cfg)

	typeTag := cfg.Type
	if forcedType != "" {
		typeTag = forcedType
	}
	kind, err := pricing.ParseKind(typeTag, fields.variableBilling)
	if err != nil {
		return nil, err
	}

	policy := pricing.Policy{
		Kind:             kind,
		AllowCustomPrice: fields.customPrice,
	}
	if policy.SuggestedPrice, err = p.amount("suggested price", fields.suggested); err != nil {
		return nil, err
	}
	if policy.MinimumPrice, err = p.amount("minimum price", fields.minimum); err != nil {
		return nil, err
	}
	if policy.MaximumPrice, err = p.amount("maximum price", fields.maximum); err != nil {
		return nil, err
	}
	if period, ok := pricing.ParsePeriod(fields.suggestedPeriod); ok {
		policy.SuggestedBillingPeriod = period
	}
	if period, ok := pricing.ParsePeriod(fields.minimumPeriod); ok {
		policy.MinimumBillingPeriod = period
	}

	product := &Product{
		ID:              cfg.ID,
		ParentID:        parentID,
		Title:           strings.TrimSpace(cfg.Title),
		Policy:          policy,
		StockLevel:      cfg.Stock,
		Hidden:          cfg.Hidden,
		BillingInterval: 1,
	}
	if product.Price, err = p.amount("price", firstNonEmpty(cfg.Price, cfg.Meta["_price"])); err != nil {
		return nil, err
	}
	if product.RegularPrice, err = p.amount("regular price", firstNonEmpty(cfg.RegularPrice, cfg.Meta["_regular_price"])); err != nil {
		return nil, err
	}
	if product.SalePrice, err = p.amount("sale price", firstNonEmpty(cfg.SalePrice, cfg.Meta["_sale_price"])); err != nil {
		return nil, err
	}
	if period, ok := pricing.ParsePeriod(firstNonEmpty(cfg.BillingPeriod, cfg.Meta["_subscription_period"])); ok {
		product.BillingPeriod = period
	}
	if policy.IsSubscription() {
		product.SubscriptionPrice = product.Price
	}
	return product, nil
}

func (p *Parser) amount(field, raw string) (decimal.NullDecimal, error) {
	value, ok := p.normalizer.NormalizeOptional(raw)
	if !ok {
		return value, fmt.Errorf("%s %q is not a number", field, raw)
	}
	if value.Valid && value.Decimal.IsNegative() {
		return value, fmt.Errorf("%s must be zero or positive", field)
	}
	return value, nil
}

type rawPolicyFields struct {
	customPrice     bool
	variableBilling bool
	suggested       string
	minimum         string
	maximum         string
	suggestedPeriod string
	minimumPeriod   string
}

// policyFields collapses the typed fields and the legacy metadata keys into
// one set of raw policy values.
func policyFields(cfg ProductConfig) rawPolicyFields {
	fields := rawPolicyFields{
		customPrice:     cfg.Meta["_nyp"] == "yes",
		variableBilling: cfg.Meta["_variable_billing"] == "yes",
		suggested:       firstNonEmpty(cfg.SuggestedPrice, cfg.Meta["_suggested_price"]),
		minimum:         firstNonEmpty(cfg.MinimumPrice, cfg.Meta["_min_price"]),
		maximum:         firstNonEmpty(cfg.MaximumPrice, cfg.Meta["_maximum_price"]),
		suggestedPeriod: firstNonEmpty(cfg.SuggestedBillingPeriod, cfg.Meta["_suggested_billing_period"]),
		minimumPeriod:   firstNonEmpty(cfg.MinimumBillingPeriod, cfg.Meta["_minimum_billing_period"]),
	}
	if cfg.CustomPrice != nil {
		fields.customPrice = *cfg.CustomPrice
	}
	if cfg.VariableBilling != nil {
		fields.variableBilling = *cfg.VariableBilling
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
