package repository

import (
	"context"

	"github.com/fjod/skincare-cart/internal/domain"
)

// CartRepository defines the server cart persistence operations
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// AddItem increases the quantity of the product's line, creating the
	// line (and the cart) when needed. Repeating a call adds again.
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID string) error
	DeleteCart(ctx context.Context, userID string) error
	// RemoveOrdered takes the quantities bought by orderID out of the cart
	// and drops lines that reach zero. Applying the same order twice is a no-op.
	RemoveOrdered(ctx context.Context, userID, orderID string, lines []domain.ProductQuantity) error
}
