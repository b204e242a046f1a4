package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrCartNotFound = errors.New("cart not found")

// Store keeps cart sessions between requests. Get returns ErrCartNotFound
// for missing or expired carts.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Cart, error)
	Set(ctx context.Context, cart *Cart, ttl time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Provider {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cart store provider: %s", cfg.Provider)
	}
}
