package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/observability"
)

var ErrNotParent = errors.New("product has no variants")

// AggregatePublisher announces recomputed parent aggregates.
type AggregatePublisher interface {
	PublishAggregates(ctx context.Context, parentID int64, result AggregateResult) error
}

// Syncer keeps the derived state of configurable parents in line with their
// variants. SyncPrices runs after any price, policy or stock change;
// SyncCustomPriceFlag after a variant's custom price flag changes.
type Syncer struct {
	store      Store
	aggregator *Aggregator
	publisher  AggregatePublisher
	logger     *slog.Logger
}

func NewSyncer(store Store, aggregator *Aggregator, publisher AggregatePublisher, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:      store,
		aggregator: aggregator,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *Syncer) SyncPrices(ctx context.Context, parentID int64) (AggregateResult, error) {
	snapshots, err := s.snapshot(ctx, parentID)
	if err != nil {
		return AggregateResult{}, err
	}

	result := s.aggregator.Recompute(snapshots)
	if err := s.store.SaveAggregates(ctx, parentID, result); err != nil {
		return AggregateResult{}, fmt.Errorf("failed to save aggregates for product %d: %w", parentID, err)
	}

	observability.AggregatesSynced(ctx, parentID, len(snapshots))
	s.logger.Debug("parent prices synced",
		"parent_id", parentID,
		"variants", len(snapshots),
		"has_custom_price", result.HasAnyCustomPrice,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishAggregates(ctx, parentID, result); err != nil {
			s.logger.Warn("failed to publish aggregates", "parent_id", parentID, "error", err)
		}
	}

	return result, nil
}

func (s *Syncer) SyncCustomPriceFlag(ctx context.Context, parentID int64) (bool, error) {
	snapshots, err := s.snapshot(ctx, parentID)
	if err != nil {
		return false, err
	}

	has := s.aggregator.HasCustomPriceVariants(snapshots)
	if err := s.store.SaveCustomPriceFlag(ctx, parentID, has); err != nil {
		return false, fmt.Errorf("failed to save custom price flag for product %d: %w", parentID, err)
	}
	return has, nil
}

func (s *Syncer) snapshot(ctx context.Context, parentID int64) ([]VariantSnapshot, error) {
	parent, err := s.store.Product(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.Policy.IsParent() {
		return nil, fmt.Errorf("product %d: %w", parentID, ErrNotParent)
	}

	variants, err := s.store.Variants(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variants of product %d: %w", parentID, err)
	}

	snapshots := make([]VariantSnapshot, 0, len(variants))
	for _, variant := range variants {
		snapshots = append(snapshots, variant.Snapshot())
	}
	return snapshots, nil
}
