package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fjod/skincare-cart/internal/cartsync"
	"github.com/fjod/skincare-cart/internal/catalog"
	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/fjod/skincare-cart/internal/localcart"
	"github.com/fjod/skincare-cart/internal/orders"
	"github.com/fjod/skincare-cart/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testSecret = "test-secret"
	testIssuer = "storefront"
)

type memoryProvider struct {
	m      sync.Mutex
	stores map[string]*localcart.Store
	tb     testing.TB
}

func (p *memoryProvider) Open(guestID string) *localcart.Store {
	p.m.Lock()
	defer p.m.Unlock()
	s, ok := p.stores[guestID]
	if !ok {
		s = localcart.NewStore(localcart.NewMemoryStorage(), zaptest.NewLogger(p.tb))
		p.stores[guestID] = s
	}
	return s
}

type mockCatalog struct {
	products map[string]*domain.Product
}

func (m *mockCatalog) ListProducts(context.Context) ([]*domain.Product, error) {
	return []*domain.Product{m.products["prod-serum"], m.products["prod-toner"]}, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
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

// mockCarts is an in-memory server cart keyed by user
type mockCarts struct {
	m     sync.Mutex
	carts map[string][]domain.ServerCartItem
	err   error
	adds  int
}

func (c *mockCarts) Items(_ context.Context, userID string) ([]domain.ServerCartItem, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]domain.ServerCartItem(nil), c.carts[userID]...), nil
}

func (c *mockCarts) AddItem(_ context.Context, userID, productID string, quantity int) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.adds++
	items := c.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return nil
		}
	}
	c.carts[userID] = append(items, domain.ServerCartItem{CartItemID: "ci-" + productID, ProductID: productID, Quantity: quantity})
	return nil
}

func (c *mockCarts) SetQuantity(_ context.Context, userID, cartItemID string, quantity int) error {
	c.m.Lock()
	defer c.m.Unlock()
	for i := range c.carts[userID] {
		if c.carts[userID][i].CartItemID == cartItemID {
			c.carts[userID][i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (c *mockCarts) RemoveItem(_ context.Context, userID, cartItemID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	items := c.carts[userID]
	for i := range items {
		if items[i].CartItemID == cartItemID {
			c.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (c *mockCarts) ClearCart(_ context.Context, userID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.carts, userID)
	return nil
}

type mockGuestCheckout struct {
	err      error
	received orders.GuestOrderRequest
}

func (m *mockGuestCheckout) Submit(ctx context.Context, req orders.GuestOrderRequest, cart orders.CartClearer) (*orders.Placed, error) {
	m.received = req
	if m.err != nil {
		return nil, m.err
	}
	if err := cart.Clear(ctx); err != nil {
		return nil, err
	}
	return &orders.Placed{OrderNumber: "ORD-20260314-ABCDEF12", Email: req.Payment.PayerEmail, Total: req.Totals.Total, Currency: "NGN"}, nil
}

type mockOrders struct {
	order *domain.Order
	err   error
}

func (m *mockOrders) PlaceUserOrder(_ context.Context, userID string, req orders.UserOrderRequest) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	o := *m.order
	o.UserID = userID
	o.Email = req.Email
	return &o, nil
}

func (m *mockOrders) Track(_ context.Context, orderNumber, email string) (*domain.Order, error) {
	if m.order == nil || m.order.OrderNumber != orderNumber || m.order.Email != email {
		return nil, orders.ErrOrderNotFound
	}
	return m.order, nil
}

func (m *mockOrders) ListUserOrders(context.Context, string) ([]*domain.Order, error) {
	if m.order == nil {
		return nil, nil
	}
	return []*domain.Order{m.order}, nil
}

type testEnv struct {
	api      *API
	handler  http.Handler
	guests   *memoryProvider
	carts    *mockCarts
	checkout *mockGuestCheckout
	orders   *mockOrders
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)
	env := &testEnv{
		guests:   &memoryProvider{stores: map[string]*localcart.Store{}, tb: t},
		carts:    &mockCarts{carts: map[string][]domain.ServerCartItem{}},
		checkout: &mockGuestCheckout{},
		orders: &mockOrders{order: &domain.Order{
			ID:            uuid.New(),
			OrderNumber:   "ORD-20260314-ABCDEF12",
			Email:         "ada@example.com",
			Status:        domain.OrderStatusConfirmed,
			PaymentStatus: domain.PaymentStatusPaid,
			Currency:      "NGN",
			CreatedAt:     time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		}},
	}
	env.api = NewAPI(Deps{
		Carts:      env.carts,
		GuestCarts: env.guests,
		Catalog: &mockCatalog{products: map[string]*domain.Product{
			"prod-serum": {ID: "prod-serum", Name: "Vitamin C Brightening Serum", Price: decimal.RequireFromString("14500")},
			"prod-toner": {ID: "prod-toner", Name: "Hydrating Rose Toner", Price: decimal.RequireFromString("6200")},
		}},
		Sessions:      cartsync.NewTracker(cartsync.NewOrchestrator(env.carts, log), time.Hour),
		GuestCheckout: env.checkout,
		Orders:        env.orders,
		Auth:          NewAuthenticator(testSecret, testIssuer, log),
		Timeout:       5 * time.Second,
		Log:           log,
	})
	env.handler = env.api.Routes()
	return env
}

func signToken(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    testIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type request struct {
	method  string
	path    string
	body    any
	guestID string
	token   string
}

func (e *testEnv) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if req.body != nil {
		if raw, ok := req.body.(string); ok {
			body.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&body).Encode(req.body))
		}
	}
	r := httptest.NewRequest(req.method, req.path, &body)
	if req.guestID != "" {
		r.Header.Set(GuestIDHeader, req.guestID)
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}
