// Package orders turns paid carts into orders and tracks them.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/fjod/skincare-cart/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Defaults fill in payment fields the gateway confirmation left empty
type Defaults struct {
	PaymentMethod string
	Currency      string
}

func DefaultDefaults() Defaults {
	return Defaults{PaymentMethod: "WALLET", Currency: "NGN"}
}

type GuestOrderRequest struct {
	Payment   domain.PaymentConfirmation `json:"payment"`
	Address   domain.Address             `json:"shipping_address"`
	Items     []domain.LocalCartItem     `json:"items" validate:"required,min=1,dive"`
	Totals    domain.Totals              `json:"totals"`
	PromoCode string                     `json:"promo_code,omitempty" validate:"max=64"`
	Notes     string                     `json:"notes,omitempty" validate:"max=1000"`
}

// Placed is what the shopper needs to find the order again
type Placed struct {
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Email       string          `json:"email"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
}

// PaymentVerifier confirms with the gateway that a transaction was paid
type PaymentVerifier interface {
	Verify(ctx context.Context, transactionReference string) error
}

type OrderCreator interface {
	CreateGuestOrder(ctx context.Context, req *GuestOrderRequest) (*domain.Order, error)
}

// CartClearer is the guest cart emptied once the order exists
type CartClearer interface {
	Clear(ctx context.Context) error
}

type Assembler struct {
	defaults Defaults
	validate *validator.Validate
	verifier PaymentVerifier
	creator  OrderCreator
	log      *zap.Logger
}

// NewAssembler builds a guest order assembler. A nil verifier skips gateway verification.
func NewAssembler(defaults Defaults, creator OrderCreator, verifier PaymentVerifier, log *zap.Logger) *Assembler {
	return &Assembler{
		defaults: defaults,
		validate: validation.New(),
		verifier: verifier,
		creator:  creator,
		log:      log.Named("orders"),
	}
}

// Submit creates a guest order and clears the guest cart. On any failure
// the cart is left as it was and an *OrderError is returned.
func (a *Assembler) Submit(ctx context.Context, req GuestOrderRequest, cart CartClearer) (*Placed, error) {
	a.applyDefaults(&req)

	fail := func(err error) (*Placed, error) {
		a.log.Error("guest order failed",
			zap.String("payment_reference", req.Payment.PaymentReference),
			zap.String("transaction_reference", req.Payment.TransactionReference),
			zap.Error(err),
		)
		return nil, &OrderError{
			PaymentReference:     req.Payment.PaymentReference,
			TransactionReference: req.Payment.TransactionReference,
			Err:                  err,
		}
	}

	if err := a.validate.Struct(req); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrInvalidRequest, err))
	}
	if req.Payment.Status != domain.PaymentStatusPaid {
		return fail(fmt.Errorf("%w: gateway status %s", ErrPaymentNotConfirmed, req.Payment.Status))
	}
	if err := checkTotals(req.Totals); err != nil {
		return fail(err)
	}

	if a.verifier != nil {
		if err := a.verifier.Verify(ctx, req.Payment.TransactionReference); err != nil {
			return fail(fmt.Errorf("failed to verify payment: %w", err))
		}
	}

	order, err := a.creator.CreateGuestOrder(ctx, &req)
	if err != nil {
		return fail(fmt.Errorf("failed to create order: %w", err))
	}

	// The order exists at this point; a stale guest cart is not a failed order.
	if err := cart.Clear(ctx); err != nil {
		a.log.Warn("failed to clear guest cart after order", zap.String("order_number", order.OrderNumber), zap.Error(err))
	}

	a.log.Info("guest order placed", zap.String("order_number", order.OrderNumber))
	return &Placed{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Email:       order.Email,
		Total:       order.Totals.Total,
		Currency:    order.Currency,
	}, nil
}

func (a *Assembler) applyDefaults(req *GuestOrderRequest) {
	if req.Payment.PaymentMethod == "" {
		req.Payment.PaymentMethod = a.defaults.PaymentMethod
	}
	if req.Payment.Currency == "" {
		req.Payment.Currency = a.defaults.Currency
	}
}

func checkTotals(t domain.Totals) error {
	for _, v := range []decimal.Decimal{t.Subtotal, t.Shipping, t.Tax, t.Discount, t.Total} {
		if v.IsNegative() {
			return fmt.Errorf("%w: negative amount", ErrInvalidRequest)
		}
	}
	if !t.Consistent() {
		return fmt.Errorf("%w: expected %s, got %s", ErrTotalsMismatch, t.Expected().StringFixed(2), t.Total.StringFixed(2))
	}
	return nil
}

// IsValidation reports whether err was caused by a rejected payload
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrTotalsMismatch)
}
