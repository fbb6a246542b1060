package orders

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrDuplicateOrder      = errors.New("order already exists for this transaction")
	ErrTotalsMismatch      = errors.New("total does not equal subtotal + shipping + tax - discount")
	ErrPaymentNotConfirmed = errors.New("payment is not confirmed")
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidRequest      = errors.New("invalid order request")
)

// OrderError reports a failed guest order. The shopper may already have
// been charged, so it carries the references support needs.
type OrderError struct {
	PaymentReference     string
	TransactionReference string
	Err                  error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order for payment %s failed: %v", e.PaymentReference, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}
