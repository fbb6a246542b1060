// Package http exposes the storefront over a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/skincare-cart/internal/cartsync"
	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/fjod/skincare-cart/internal/localcart"
	"github.com/fjod/skincare-cart/internal/orders"
	"github.com/fjod/skincare-cart/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type CartService interface {
	Items(ctx context.Context, userID string) ([]domain.ServerCartItem, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	SetQuantity(ctx context.Context, userID, cartItemID string, quantity int) error
	RemoveItem(ctx context.Context, userID, cartItemID string) error
	ClearCart(ctx context.Context, userID string) error
}

type Catalog interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error)
}

type SessionTracker interface {
	Check(ctx context.Context, sessionID string, auth cartsync.Auth, store *localcart.Store) (*cartsync.Result, error)
	Resync(ctx context.Context, sessionID string, auth cartsync.Auth, store *localcart.Store) (*cartsync.Result, error)
	State(sessionID string) cartsync.SessionState
}

type GuestCheckout interface {
	Submit(ctx context.Context, req orders.GuestOrderRequest, cart orders.CartClearer) (*orders.Placed, error)
}

type OrderService interface {
	PlaceUserOrder(ctx context.Context, userID string, req orders.UserOrderRequest) (*domain.Order, error)
	Track(ctx context.Context, orderNumber, email string) (*domain.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

type Deps struct {
	Carts         CartService
	GuestCarts    localcart.Provider
	Catalog       Catalog
	Sessions      SessionTracker
	GuestCheckout GuestCheckout
	Orders        OrderService
	Auth          *Authenticator
	Timeout       time.Duration
	MaxBodySize   int64
	Log           *zap.Logger
}

type API struct {
	carts         CartService
	guestCarts    localcart.Provider
	catalog       Catalog
	sessions      SessionTracker
	guestCheckout GuestCheckout
	orders        OrderService
	auth          *Authenticator
	validate      *validator.Validate
	timeout       time.Duration
	maxBodySize   int64
	log           *zap.Logger
}

func NewAPI(d Deps) *API {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBody := d.MaxBodySize
	if maxBody <= 0 {
		maxBody = 1 << 20 // 1MB
	}
	return &API{
		carts:         d.Carts,
		guestCarts:    d.GuestCarts,
		catalog:       d.Catalog,
		sessions:      d.Sessions,
		guestCheckout: d.GuestCheckout,
		orders:        d.Orders,
		auth:          d.Auth,
		validate:      validation.New(),
		timeout:       timeout,
		maxBodySize:   maxBody,
		log:           d.Log.Named("http"),
	}
}

// Routes builds the router with all middleware and API routes
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(a.log))
	r.Use(MaxBodyMiddleware(a.maxBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		a.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			a.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", a.ListProducts)
			r.Get("/{product_id}", a.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(GuestMiddleware)

			r.Route("/guest/cart", func(r chi.Router) {
				r.Get("/", a.GetGuestCart)
				r.Delete("/", a.ClearGuestCart)
				r.Get("/count", a.GuestCartCount)
				r.Post("/items", a.AddGuestItem)
				r.Put("/items/{product_id}", a.UpdateGuestItem)
				r.Delete("/items/{product_id}", a.RemoveGuestItem)
			})

			r.Post("/orders/guest", a.PlaceGuestOrder)

			r.With(a.auth.OptionalAuth).Post("/session", a.ReportSession)
			r.With(a.auth.RequireAuth).Post("/session/resync", a.ResyncSession)
		})

		r.Get("/orders/track/{order_number}", a.TrackOrder)

		r.Group(func(r chi.Router) {
			r.Use(a.auth.RequireAuth)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", a.GetCart)
				r.Delete("/", a.ClearCart)
				r.Post("/items", a.AddItem)
				r.Put("/items/{cart_item_id}", a.UpdateItem)
				r.Delete("/items/{cart_item_id}", a.RemoveItem)
			})

			r.Get("/orders", a.ListOrders)
			r.Post("/orders", a.PlaceOrder)
		})
	})

	return r
}

func (a *API) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), a.timeout)
}

func (a *API) guestStore(r *http.Request) *localcart.Store {
	return a.guestCarts.Open(getGuestID(r.Context()))
}
