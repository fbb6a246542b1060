package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocalCartItem is a guest cart line. Product IDs are unique within a guest cart.
type LocalCartItem struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// ProductQuantity is an amount of one product, independent of any cart line
type ProductQuantity struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is the persisted server cart of an authenticated user
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ItemID    string    `bson:"item_id" json:"item_id"`
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// ProductInfo is the display metadata attached to a server cart line
type ProductInfo struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ServerCartItem is a server cart line joined with its product
type ServerCartItem struct {
	CartItemID string      `json:"cart_item_id"`
	ProductID  string      `json:"product_id"`
	Quantity   int         `json:"quantity"`
	Product    ProductInfo `json:"product"`
}
