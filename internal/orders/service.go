package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/fjod/skincare-cart/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductCatalog interface {
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
}

// CartReader reads a user's server cart joined with product data
type CartReader interface {
	Items(ctx context.Context, userID string) ([]domain.ServerCartItem, error)
}

// UserOrderRequest is an authenticated checkout. Items come from the
// user's server cart; the subtotal is computed from catalog prices.
type UserOrderRequest struct {
	Email                string          `json:"email" validate:"required,email"`
	Address              domain.Address  `json:"shipping_address"`
	PaymentMethod        string          `json:"payment_method,omitempty"`
	Currency             string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	PaymentReference     string          `json:"payment_reference,omitempty"`
	Shipping             decimal.Decimal `json:"shipping"`
	Tax                  decimal.Decimal `json:"tax"`
	Discount             decimal.Decimal `json:"discount"`
	PromoCode            string          `json:"promo_code,omitempty" validate:"max=64"`
	Notes                string          `json:"notes,omitempty" validate:"max=1000"`
}

type Service struct {
	repo     Repository
	catalog  ProductCatalog
	carts    CartReader
	defaults Defaults
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, catalog ProductCatalog, carts CartReader, defaults Defaults, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		carts:    carts,
		defaults: defaults,
		validate: validation.New(),
		log:      log.Named("orders"),
		now:      time.Now,
	}
}

// CreateGuestOrder stores a paid guest order. Names and unit prices are
// snapshotted from the catalog and must add up to the submitted subtotal.
func (s *Service) CreateGuestOrder(ctx context.Context, req *GuestOrderRequest) (*domain.Order, error) {
	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %s", ErrInvalidRequest, item.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   p.Price,
		})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !subtotal.Equal(req.Totals.Subtotal) {
		return nil, fmt.Errorf("%w: items come to %s, subtotal is %s",
			ErrTotalsMismatch, subtotal.StringFixed(2), req.Totals.Subtotal.StringFixed(2))
	}

	now := s.now()
	order := &domain.Order{
		ID:                   uuid.New(),
		OrderNumber:          NewOrderNumber(now),
		Email:                req.Payment.PayerEmail,
		Status:               domain.OrderStatusConfirmed,
		PaymentStatus:        req.Payment.Status,
		PaymentMethod:        req.Payment.PaymentMethod,
		TransactionReference: req.Payment.TransactionReference,
		PaymentReference:     req.Payment.PaymentReference,
		Currency:             req.Payment.Currency,
		ShippingAddress:      req.Address,
		Items:                items,
		Totals:               req.Totals,
		PromoCode:            req.PromoCode,
		Notes:                req.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// PlaceUserOrder checks out the user's server cart. The ordered quantities
// leave the cart asynchronously once the order.placed event is consumed.
func (s *Service) PlaceUserOrder(ctx context.Context, userID string, req UserOrderRequest) (*domain.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	cartItems, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyOrder
	}

	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(cartItems))
	for _, ci := range cartItems {
		if ci.Product.Name == "" {
			return nil, fmt.Errorf("%w: product %s is no longer available", ErrInvalidRequest, ci.ProductID)
		}
		items = append(items, domain.OrderItem{
			ProductID:   ci.ProductID,
			ProductName: ci.Product.Name,
			Quantity:    ci.Quantity,
			UnitPrice:   ci.Product.Price,
		})
		subtotal = subtotal.Add(ci.Product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity))))
	}

	totals := domain.Totals{
		Subtotal: subtotal,
		Shipping: req.Shipping,
		Tax:      req.Tax,
		Discount: req.Discount,
	}
	totals.Total = totals.Expected()
	if err := checkTotals(totals); err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = s.defaults.PaymentMethod
	}
	currency := req.Currency
	if currency == "" {
		currency = s.defaults.Currency
	}

	now := s.now()
	order := &domain.Order{
		ID:                   uuid.New(),
		OrderNumber:          NewOrderNumber(now),
		UserID:               userID,
		Email:                req.Email,
		Status:               domain.OrderStatusPending,
		PaymentStatus:        domain.PaymentStatusPending,
		PaymentMethod:        method,
		TransactionReference: req.TransactionReference,
		PaymentReference:     req.PaymentReference,
		Currency:             currency,
		ShippingAddress:      req.Address,
		Items:                items,
		Totals:               totals,
		PromoCode:            req.PromoCode,
		Notes:                req.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.log.Info("user order placed", zap.String("user_id", userID), zap.String("order_number", order.OrderNumber))
	return order, nil
}

// Track finds an order by number for someone who can name its email.
// A wrong email is indistinguishable from a missing order.
func (s *Service) Track(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	email = strings.TrimSpace(email)
	if orderNumber == "" || email == "" {
		return nil, ErrOrderNotFound
	}

	order, err := s.repo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(order.Email, email) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}
