package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lafranceinsoumise/woocommerce-name-your-price-jlm2017/internal/cache"
)

// CachedStore reads products through a cache. Every write goes to the
// underlying store first and then drops the affected keys.
type CachedStore struct {
	store  Store
	cache  cache.Provider
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(store Store, provider cache.Provider, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{
		store:  store,
		cache:  provider,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *CachedStore) Product(ctx context.Context, id int64) (*Product, error) {
	key := cache.ProductKey(id)

	var product Product
	if s.lookup(ctx, key, &product) {
		return &product, nil
	}

	loaded, err := s.store.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, loaded)
	return loaded, nil
}

func (s *CachedStore) Variants(ctx context.Context, parentID int64) ([]*Product, error) {
	key := cache.VariantsKey(parentID)

	var variants []*Product
	if s.lookup(ctx, key, &variants) {
		return variants, nil
	}

	loaded, err := s.store.Variants(ctx, parentID)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, loaded)
	return loaded, nil
}

func (s *CachedStore) SaveProduct(ctx context.Context, product *Product) error {
	if err := s.store.SaveProduct(ctx, product); err != nil {
		return err
	}
	keys := []string{cache.ProductKey(product.ID)}
	if product.ParentID != 0 {
		keys = append(keys, cache.VariantsKey(product.ParentID))
	}
	s.invalidate(ctx, keys...)
	return nil
}

func (s *CachedStore) SaveAggregates(ctx context.Context, parentID int64, result AggregateResult) error {
	if err := s.store.SaveAggregates(ctx, parentID, result); err != nil {
		return err
	}
	s.invalidate(ctx, cache.ProductKey(parentID))
	return nil
}

func (s *CachedStore) SaveCustomPriceFlag(ctx context.Context, parentID int64, hasCustomPriceVariants bool) error {
	if err := s.store.SaveCustomPriceFlag(ctx, parentID, hasCustomPriceVariants); err != nil {
		return err
	}
	s.invalidate(ctx, cache.ProductKey(parentID))
	return nil
}

// lookup treats every cache failure as a miss.
func (s *CachedStore) lookup(ctx context.Context, key string, dest any) bool {
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("catalog cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		s.logger.Warn("catalog cache entry is corrupt", "key", key, "error", err)
		s.invalidate(ctx, key)
		return false
	}
	return true
}

func (s *CachedStore) fill(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("failed to encode catalog cache entry", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		s.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("catalog cache invalidation failed", "keys", keys, "error", err)
	}
}
