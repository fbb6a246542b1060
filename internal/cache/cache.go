package cache

import (
	"context"
	"errors"

	"github.com/fjod/skincare-cart/internal/domain"
)

// CartCache is a read-through cache of server carts keyed by user ID.
// Every Delete advances the user's version; Set only stores a cart read
// under the version that is still current.
type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Version(ctx context.Context, userID string) (int64, error)
	// Set reports false when the version moved on and the cart was dropped
	Set(ctx context.Context, userID string, cart *domain.Cart, version int64) (bool, error)
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
