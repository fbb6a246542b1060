package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PaymentConfirmation is what the gateway reported for a completed payment
type PaymentConfirmation struct {
	Status               PaymentStatus `json:"status" validate:"required"`
	TransactionReference string        `json:"transaction_reference" validate:"required"`
	PaymentReference     string        `json:"payment_reference" validate:"required"`
	PayerName            string        `json:"payer_name"`
	PayerEmail           string        `json:"payer_email" validate:"required,email"`
	PaymentMethod        string        `json:"payment_method,omitempty"`
	Currency             string        `json:"currency,omitempty"`
}

type Address struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country" validate:"required"`
}

// Totals is the price breakdown of an order.
// Total must equal Subtotal + Shipping + Tax - Discount.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

func (t Totals) Expected() decimal.Decimal {
	return t.Subtotal.Add(t.Shipping).Add(t.Tax).Sub(t.Discount)
}

func (t Totals) Consistent() bool {
	return t.Total.Equal(t.Expected())
}

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID                   uuid.UUID
	OrderNumber          string
	UserID               string // empty for guest orders
	Email                string
	Status               OrderStatus
	PaymentStatus        PaymentStatus
	PaymentMethod        string
	TransactionReference string
	PaymentReference     string
	Currency             string
	ShippingAddress      Address
	Items                []OrderItem
	Totals               Totals
	PromoCode            string
	Notes                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (o *Order) IsGuest() bool {
	return o.UserID == ""
}
