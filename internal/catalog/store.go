package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store is the catalog persistence seen by pricing. Implementations return
// copies; callers never share a *Product with the store.
type Store interface {
	Product(ctx context.Context, id int64) (*Product, error)
	// Variants returns the visible children of parentID, ordered by ID, read
	// from one consistent snapshot.
	Variants(ctx context.Context, parentID int64) ([]*Product, error)
	SaveProduct(ctx context.Context, product *Product) error
	SaveAggregates(ctx context.Context, parentID int64, result AggregateResult) error
	SaveCustomPriceFlag(ctx context.Context, parentID int64, hasCustomPriceVariants bool) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	products map[int64]*Product
}

func NewMemoryStore(products ...*Product) *MemoryStore {
	store := &MemoryStore{products: make(map[int64]*Product, len(products))}
	for _, product := range products {
		store.products[product.ID] = product.Clone()
	}
	return store
}

func (s *MemoryStore) Product(_ context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	return product.Clone(), nil
}

func (s *MemoryStore) Variants(_ context.Context, parentID int64) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.products[parentID]; !ok {
		return nil, fmt.Errorf("product %d: %w", parentID, ErrProductNotFound)
	}

	var variants []*Product
	for _, product := range s.products {
		if product.ParentID == parentID && !product.Hidden {
			variants = append(variants, product.Clone())
		}
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i].ID < variants[j].ID })
	return variants, nil
}

// Products lists every record ordered by ID.
func (s *MemoryStore) Products(_ context.Context) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]*Product, 0, len(s.products))
	for _, product := range s.products {
		products = append(products, product.Clone())
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemoryStore) SaveProduct(_ context.Context, product *Product) error {
	if product == nil || product.ID <= 0 {
		return fmt.Errorf("product id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[product.ID] = product.Clone()
	return nil
}

func (s *MemoryStore) SaveAggregates(_ context.Context, parentID int64, result AggregateResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.products[parentID]
	if !ok {
		return fmt.Errorf("product %d: %w", parentID, ErrProductNotFound)
	}

	aggregates := result.clone()
	parent.Aggregates = &aggregates
	parent.Price = result.Price
	parent.HasCustomPriceVariants = result.HasAnyCustomPrice
	return nil
}

func (s *MemoryStore) SaveCustomPriceFlag(_ context.Context, parentID int64, hasCustomPriceVariants bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.products[parentID]
	if !ok {
		return fmt.Errorf("product %d: %w", parentID, ErrProductNotFound)
	}

	parent.HasCustomPriceVariants = hasCustomPriceVariants
	return nil
}
