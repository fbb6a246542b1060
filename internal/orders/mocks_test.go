package orders

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/shopspring/decimal"
)

type mockRepository struct {
	m         sync.RWMutex
	orders    map[string]*domain.Order
	createErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{orders: map[string]*domain.Order{}}
}

func (m *mockRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.OrderNumber] = order
	return nil
}

func (m *mockRepository) GetByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	o, ok := m.orders[orderNumber]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (m *mockRepository) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	out := []*domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockRepository) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.orders)
}

type mockCatalog struct {
	products map[string]*domain.Product
}

func (m *mockCatalog) GetProducts(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	out := map[string]*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func newCatalog() *mockCatalog {
	return &mockCatalog{products: map[string]*domain.Product{
		"prod-serum":     {ID: "prod-serum", Name: "Vitamin C Brightening Serum", Price: decimal.RequireFromString("14500.00")},
		"prod-sunscreen": {ID: "prod-sunscreen", Name: "Mineral Sunscreen SPF 50", Price: decimal.RequireFromString("9800.00")},
	}}
}

type mockCarts struct {
	items []domain.ServerCartItem
	err   error
}

func (m *mockCarts) Items(context.Context, string) ([]domain.ServerCartItem, error) {
	return m.items, m.err
}

type mockVerifier struct {
	err   error
	calls []string
}

func (m *mockVerifier) Verify(_ context.Context, ref string) error {
	m.calls = append(m.calls, ref)
	return m.err
}

type mockCart struct {
	items   int
	err     error
	cleared bool
}

func (m *mockCart) Clear(context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.items = 0
	m.cleared = true
	return nil
}

var errGateway = errors.New("gateway unreachable")
