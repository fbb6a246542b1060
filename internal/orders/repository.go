package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/shopspring/decimal"
)

const EventTypeOrderPlaced = "order.placed"

// OutboxEvent is a pending domain event stored alongside the order it describes
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// OrderPlaced is the payload of an order.placed event
type OrderPlaced struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      string          `json:"user_id,omitempty"`
	Email       string          `json:"email"`
	Items       []OrderedItem   `json:"items"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	PlacedAt    time.Time       `json:"placed_at"`
}

type OrderedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Repository interface {
	// CreateOrder stores the order and its order.placed event atomically
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
