package catalog

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

type Validator struct {
	structs *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{structs: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks the structure of a catalog file. Price consistency is
// reported separately by Warnings since it never blocks loading.
func (v *Validator) Validate(file *CatalogFile) error {
	if file == nil {
		return fmt.Errorf("catalog file is required")
	}

	if err := v.structs.Struct(file); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	if file.Settings.OutOfStockThreshold < 0 {
		return fmt.Errorf("out of stock threshold must be zero or positive")
	}

	ids := make(map[int64]bool)
	for i, product := range file.Products {
		if err := v.validateProduct(&product); err != nil {
			return fmt.Errorf("product %d validation failed: %w", i, err)
		}

		if ids[product.ID] {
			return fmt.Errorf("duplicate product id: %d", product.ID)
		}
		ids[product.ID] = true

		for j, variant := range product.Variants {
			if err := v.validateVariant(&variant); err != nil {
				return fmt.Errorf("product %d variant %d validation failed: %w", i, j, err)
			}

			if ids[variant.ID] {
				return fmt.Errorf("duplicate product id: %d", variant.ID)
			}
			ids[variant.ID] = true
		}
	}

	return nil
}

func (v *Validator) validateProduct(product *ProductConfig) error {
	configurable := product.Type == "variable" || product.Type == "variable-subscription"

	if len(product.Variants) > 0 && !configurable {
		return fmt.Errorf("only variable products can have variants")
	}

	if product.Type == "variation" || product.Type == "subscription_variation" {
		return fmt.Errorf("variations must be nested under a variable product")
	}

	if configurable && strings.TrimSpace(product.MinimumPrice) != "" {
		return fmt.Errorf("variable products take pricing policy from their variants")
	}

	return nil
}

func (v *Validator) validateVariant(variant *ProductConfig) error {
	if len(variant.Variants) > 0 {
		return fmt.Errorf("variants cannot be nested")
	}

	if variant.Type != "" && variant.Type != "variation" && variant.Type != "subscription_variation" {
		return fmt.Errorf("variant type must be variation")
	}

	return nil
}

// Warnings lists the pricing policy inconsistencies of each product, keyed
// by product ID. Products without warnings are omitted.
func (v *Validator) Warnings(products []*Product) map[int64][]pricing.Warning {
	warnings := make(map[int64][]pricing.Warning)
	for _, product := range products {
		if !product.Policy.AllowCustomPrice {
			continue
		}
		if found := product.Policy.Warnings(); len(found) > 0 {
			warnings[product.ID] = found
		}
	}
	return warnings
}
