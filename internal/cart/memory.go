package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	cart      *Cart
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[uuid.UUID]*memoryEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked(s.now())

	entry, ok := s.carts[id]
	if !ok {
		return nil, fmt.Errorf("cart %s: %w", id, ErrCartNotFound)
	}
	return entry.cart.clone(), nil
}

func (s *MemoryStore) Set(_ context.Context, cart *Cart, ttl time.Duration) error {
	if cart == nil || cart.ID == uuid.Nil {
		return fmt.Errorf("cart id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.cleanupExpiredLocked(now)

	s.carts[cart.ID] = &memoryEntry{
		cart:      cart.clone(),
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
	return nil
}

func (s *MemoryStore) cleanupExpiredLocked(now time.Time) {
	for id, entry := range s.carts {
		if now.After(entry.expiresAt) {
			delete(s.carts, id)
		}
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
