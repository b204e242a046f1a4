package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

var ErrUnknownBulkAction = errors.New("unknown bulk action")

type BulkAction string

const (
	BulkToggleCustomPrice      BulkAction = "toggle_custom_price"
	BulkSetSuggestedPrice      BulkAction = "set_suggested_price"
	BulkSetMinimumPrice        BulkAction = "set_minimum_price"
	BulkIncreaseSuggestedPrice BulkAction = "increase_suggested_price"
	BulkDecreaseSuggestedPrice BulkAction = "decrease_suggested_price"
	BulkIncreaseMinimumPrice   BulkAction = "increase_minimum_price"
	BulkDecreaseMinimumPrice   BulkAction = "decrease_minimum_price"
)

// BulkEdit is one bulk action over the variants of a parent. Value is a raw
// amount, read as a percentage for adjustments when Percentage is set.
type BulkEdit struct {
	Action     BulkAction
	Value      string
	Percentage bool
}

// BulkResult lists the variants an edit changed.
type BulkResult struct {
	Updated []int64 `json:"updated"`
	Skipped []int64 `json:"skipped"`
}

type BulkEditor struct {
	editor *Editor
	logger *slog.Logger
}

func NewBulkEditor(editor *Editor, logger *slog.Logger) *BulkEditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkEditor{editor: editor, logger: logger}
}

// Apply runs edit on each of variantIDs in order. Edits are not atomic: a
// failing variant is reported in the joined error while earlier and later
// variants keep their changes. The parent is synced once at the end.
func (b *BulkEditor) Apply(ctx context.Context, parentID int64, variantIDs []int64, edit BulkEdit) (BulkResult, error) {
	var result BulkResult

	update, err := b.updater(edit)
	if err != nil {
		return result, err
	}

	var errs []error
	for _, id := range variantIDs {
		variant, err := b.editor.store.Product(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("variant %d: %w", id, err))
			continue
		}
		if variant.ParentID != parentID {
			errs = append(errs, fmt.Errorf("variant %d does not belong to product %d", id, parentID))
			continue
		}

		if !update(variant) {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		if err := b.editor.store.SaveProduct(ctx, variant); err != nil {
			errs = append(errs, fmt.Errorf("variant %d: %w", id, err))
			continue
		}
		result.Updated = append(result.Updated, id)
	}

	if len(result.Updated) > 0 && b.editor.syncer != nil {
		if _, err := b.editor.syncer.SyncPrices(ctx, parentID); err != nil {
			errs = append(errs, fmt.Errorf("sync product %d: %w", parentID, err))
		}
	}

	b.logger.Info("bulk variant edit applied",
		"parent_id", parentID,
		"action", string(edit.Action),
		"updated", len(result.Updated),
		"skipped", len(result.Skipped),
		"failed", len(errs),
	)

	return result, errors.Join(errs...)
}

// updater returns the per-variant mutation for edit. It reports false when
// the variant is left untouched.
func (b *BulkEditor) updater(edit BulkEdit) (func(*Product) bool, error) {
	switch edit.Action {
	case BulkToggleCustomPrice:
		return func(p *Product) bool {
			p.Policy.AllowCustomPrice = !p.Policy.AllowCustomPrice
			return true
		}, nil

	case BulkSetSuggestedPrice, BulkSetMinimumPrice:
		value, err := b.editor.amount("value", edit.Value)
		if err != nil {
			return nil, err
		}
		return func(p *Product) bool {
			if !p.Policy.AllowCustomPrice {
				return false
			}
			if edit.Action == BulkSetSuggestedPrice {
				p.Policy.SuggestedPrice = value
				return true
			}
			p.Policy.MinimumPrice = value
			applyMinimumAsPrice(p)
			return true
		}, nil

	case BulkIncreaseSuggestedPrice, BulkDecreaseSuggestedPrice, BulkIncreaseMinimumPrice, BulkDecreaseMinimumPrice:
		value, err := b.editor.amount("value", edit.Value)
		if err != nil {
			return nil, err
		}
		if !value.Valid {
			return nil, fmt.Errorf("value is required for %s", edit.Action)
		}
		decrease := edit.Action == BulkDecreaseSuggestedPrice || edit.Action == BulkDecreaseMinimumPrice
		minimum := edit.Action == BulkIncreaseMinimumPrice || edit.Action == BulkDecreaseMinimumPrice

		return func(p *Product) bool {
			if !p.Policy.AllowCustomPrice {
				return false
			}
			if minimum {
				p.Policy.MinimumPrice = adjust(p.Policy.MinimumPrice, value.Decimal, edit.Percentage, decrease)
				applyMinimumAsPrice(p)
				return true
			}
			p.Policy.SuggestedPrice = adjust(p.Policy.SuggestedPrice, value.Decimal, edit.Percentage, decrease)
			return true
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBulkAction, edit.Action)
	}
}

// adjust moves current by delta, or by delta percent. An unset current
// counts as zero and results never go below zero.
func adjust(current decimal.NullDecimal, delta decimal.Decimal, percentage, decrease bool) decimal.NullDecimal {
	base := decimal.Zero
	if current.Valid {
		base = current.Decimal
	}

	change := delta
	if percentage {
		change = base.Mul(delta).Div(decimal.NewFromInt(100))
	}
	if decrease {
		change = change.Neg()
	}

	next := base.Add(change)
	if next.IsNegative() {
		next = decimal.Zero
	}
	return decimal.NewNullDecimal(next)
}
