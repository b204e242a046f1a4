package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/catalog"
	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/pricing"
)

const productColumns = `id, parent_id, title, kind, variable_billing, allow_custom_price,
	suggested_price::text, minimum_price::text, maximum_price::text,
	suggested_billing_period, minimum_billing_period,
	price::text, regular_price::text, sale_price::text, subscription_price::text,
	billing_period, billing_interval, stock_level, hidden,
	has_custom_price_variants, aggregates`

// CatalogStore implements catalog.Store on the nyp_products table.
type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

func (s *CatalogStore) Product(ctx context.Context, id int64) (*catalog.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM nyp_products WHERE id = $1`, id)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, catalog.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return product, nil
}

// Variants reads the parent and its visible children in one repeatable read
// transaction so that a sync never sees a half-applied sibling edit.
func (s *CatalogStore) Variants(ctx context.Context, parentID int64) ([]*catalog.Product, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint
	}()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM nyp_products WHERE id = $1)`, parentID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check product %d: %w", parentID, err)
	}
	if !exists {
		return nil, fmt.Errorf("product %d: %w", parentID, catalog.ErrProductNotFound)
	}

	rows, err := tx.Query(ctx, `SELECT `+productColumns+` FROM nyp_products WHERE parent_id = $1 AND NOT hidden ORDER BY id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants of %d: %w", parentID, err)
	}
	defer rows.Close()

	var variants []*catalog.Product
	for rows.Next() {
		variant, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant of %d: %w", parentID, err)
		}
		variants = append(variants, variant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load variants of %d: %w", parentID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to close snapshot: %w", err)
	}
	return variants, nil
}

func (s *CatalogStore) SaveProduct(ctx context.Context, product *catalog.Product) error {
	var parentID pgtype.Int8
	if product.ParentID != 0 {
		parentID = pgtype.Int8{Int64: product.ParentID, Valid: true}
	}
	var stock pgtype.Int4
	if product.StockLevel != nil {
		stock = pgtype.Int4{Int32: int32(*product.StockLevel), Valid: true}
	}
	interval := product.BillingInterval
	if interval <= 0 {
		interval = 1
	}

	policy := product.Policy
	_, err := s.pool.Exec(ctx, `
		INSERT INTO nyp_products (
			id, parent_id, title, kind, variable_billing, allow_custom_price,
			suggested_price, minimum_price, maximum_price,
			suggested_billing_period, minimum_billing_period,
			price, regular_price, sale_price, subscription_price,
			billing_period, billing_interval, stock_level, hidden
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			parent_id = EXCLUDED.parent_id,
			title = EXCLUDED.title,
			kind = EXCLUDED.kind,
			variable_billing = EXCLUDED.variable_billing,
			allow_custom_price = EXCLUDED.allow_custom_price,
			suggested_price = EXCLUDED.suggested_price,
			minimum_price = EXCLUDED.minimum_price,
			maximum_price = EXCLUDED.maximum_price,
			suggested_billing_period = EXCLUDED.suggested_billing_period,
			minimum_billing_period = EXCLUDED.minimum_billing_period,
			price = EXCLUDED.price,
			regular_price = EXCLUDED.regular_price,
			sale_price = EXCLUDED.sale_price,
			subscription_price = EXCLUDED.subscription_price,
			billing_period = EXCLUDED.billing_period,
			billing_interval = EXCLUDED.billing_interval,
			stock_level = EXCLUDED.stock_level,
			hidden = EXCLUDED.hidden`,
		product.ID, parentID, product.Title, pricing.KindTag(policy.Kind), policy.VariableBillingPeriod(), policy.AllowCustomPrice,
		policy.SuggestedPrice, policy.MinimumPrice, policy.MaximumPrice,
		string(policy.SuggestedBillingPeriod), string(policy.MinimumBillingPeriod),
		product.Price, product.RegularPrice, product.SalePrice, product.SubscriptionPrice,
		string(product.BillingPeriod), interval, stock, product.Hidden,
	)
	if err != nil {
		return fmt.Errorf("failed to save product %d: %w", product.ID, err)
	}
	return nil
}

func (s *CatalogStore) SaveAggregates(ctx context.Context, parentID int64, result catalog.AggregateResult) error {
	aggregates, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode aggregates: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE nyp_products
		SET price = $2, has_custom_price_variants = $3, aggregates = $4
		WHERE id = $1`,
		parentID, result.Price, result.HasAnyCustomPrice, aggregates,
	)
	if err != nil {
		return fmt.Errorf("failed to save aggregates of %d: %w", parentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", parentID, catalog.ErrProductNotFound)
	}
	return nil
}

func (s *CatalogStore) SaveCustomPriceFlag(ctx context.Context, parentID int64, hasCustomPriceVariants bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE nyp_products SET has_custom_price_variants = $2 WHERE id = $1`, parentID, hasCustomPriceVariants)
	if err != nil {
		return fmt.Errorf("failed to save custom price flag of %d: %w", parentID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", parentID, catalog.ErrProductNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// productRow mirrors productColumns. Numerics are read as text so that no
// precision is lost on the way to decimal.
type productRow struct {
	ID                     int64
	ParentID               pgtype.Int8
	Title                  string
	Kind                   string
	VariableBilling        bool
	AllowCustomPrice       bool
	SuggestedPrice         pgtype.Text
	MinimumPrice           pgtype.Text
	MaximumPrice           pgtype.Text
	SuggestedBillingPeriod string
	MinimumBillingPeriod   string
	Price                  pgtype.Text
	RegularPrice           pgtype.Text
	SalePrice              pgtype.Text
	SubscriptionPrice      pgtype.Text
	BillingPeriod          string
	BillingInterval        int32
	StockLevel             pgtype.Int4
	Hidden                 bool
	HasCustomPriceVariants bool
	Aggregates             []byte
}

func scanProduct(row rowScanner) (*catalog.Product, error) {
	var r productRow
	if err := row.Scan(
		&r.ID, &r.ParentID, &r.Title, &r.Kind, &r.VariableBilling, &r.AllowCustomPrice,
		&r.SuggestedPrice, &r.MinimumPrice, &r.MaximumPrice,
		&r.SuggestedBillingPeriod, &r.MinimumBillingPeriod,
		&r.Price, &r.RegularPrice, &r.SalePrice, &r.SubscriptionPrice,
		&r.BillingPeriod, &r.BillingInterval, &r.StockLevel, &r.Hidden,
		&r.HasCustomPriceVariants, &r.Aggregates,
	); err != nil {
		return nil, err
	}
	return r.product()
}

func (r productRow) product() (*catalog.Product, error) {
	kind, err := pricing.ParseKind(r.Kind, r.VariableBilling)
	if err != nil {
		return nil, err
	}

	product := &catalog.Product{
		ID:    r.ID,
		Title: r.Title,
		Policy: pricing.Policy{
			Kind:             kind,
			AllowCustomPrice: r.AllowCustomPrice,
		},
		BillingInterval:        int(r.BillingInterval),
		Hidden:                 r.Hidden,
		HasCustomPriceVariants: r.HasCustomPriceVariants,
	}
	if r.ParentID.Valid {
		product.ParentID = r.ParentID.Int64
	}
	if r.StockLevel.Valid {
		level := int(r.StockLevel.Int32)
		product.StockLevel = &level
	}
	if period, ok := pricing.ParsePeriod(r.SuggestedBillingPeriod); ok {
		product.Policy.SuggestedBillingPeriod = period
	}
	if period, ok := pricing.ParsePeriod(r.MinimumBillingPeriod); ok {
		product.Policy.MinimumBillingPeriod = period
	}
	if period, ok := pricing.ParsePeriod(r.BillingPeriod); ok {
		product.BillingPeriod = period
	}

	amounts := []struct {
		src  pgtype.Text
		dest *decimal.NullDecimal
	}{
		{r.SuggestedPrice, &product.Policy.SuggestedPrice},
		{r.MinimumPrice, &product.Policy.MinimumPrice},
		{r.MaximumPrice, &product.Policy.MaximumPrice},
		{r.Price, &product.Price},
		{r.RegularPrice, &product.RegularPrice},
		{r.SalePrice, &product.SalePrice},
		{r.SubscriptionPrice, &product.SubscriptionPrice},
	}
	for _, a := range amounts {
		value, err := numericText(a.src)
		if err != nil {
			return nil, err
		}
		*a.dest = value
	}

	if len(r.Aggregates) > 0 {
		var aggregates catalog.AggregateResult
		if err := json.Unmarshal(r.Aggregates, &aggregates); err != nil {
			return nil, fmt.Errorf("failed to decode aggregates of %d: %w", r.ID, err)
		}
		product.Aggregates = &aggregates
	}

	return product, nil
}

func numericText(t pgtype.Text) (decimal.NullDecimal, error) {
	if !t.Valid {
		return decimal.NullDecimal{}, nil
	}
	value, err := decimal.NewFromString(t.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid numeric %q: %w", t.String, err)
	}
	return decimal.NewNullDecimal(value), nil
}
