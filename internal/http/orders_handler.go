package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/fjod/skincare-cart/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderResponseDTO struct {
	ID              string             `json:"id"`
	OrderNumber     string             `json:"order_number"`
	Status          string             `json:"status"`
	PaymentStatus   string             `json:"payment_status"`
	PaymentMethod   string             `json:"payment_method"`
	Currency        string             `json:"currency"`
	Email           string             `json:"email"`
	Guest           bool               `json:"guest"`
	Items           []domain.OrderItem `json:"items"`
	Totals          domain.Totals      `json:"totals"`
	ShippingAddress domain.Address     `json:"shipping_address"`
	CreatedAt       string             `json:"created_at"`
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	return OrderResponseDTO{
		ID:              o.ID.String(),
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		Currency:        o.Currency,
		Email:           o.Email,
		Guest:           o.IsGuest(),
		Items:           items,
		Totals:          o.Totals,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
}

// POST /api/v1/orders/guest
// Items default to the contents of the guest cart when omitted.
func (a *API) PlaceGuestOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	var req orders.GuestOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	store := a.guestStore(r)
	if len(req.Items) == 0 {
		req.Items = store.Get(ctx)
	}

	placed, err := a.guestCheckout.Submit(ctx, req, store)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, placed)
}

// GET /api/v1/orders/track/{order_number}?email=
func (a *API) TrackOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	order, err := a.orders.Track(ctx, chi.URLParam(r, "order_number"), r.URL.Query().Get("email"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /api/v1/orders
func (a *API) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	var req orders.UserOrderRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}

	order, err := a.orders.PlaceUserOrder(ctx, getUserID(r.Context()), req)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, convertOrder(order))
}

// GET /api/v1/orders
func (a *API) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	list, err := a.orders.ListUserOrders(ctx, getUserID(r.Context()))
	if err != nil {
		a.handleError(w, r, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(list))
	for _, o := range list {
		dtos = append(dtos, convertOrder(o))
	}
	a.respondJSON(w, http.StatusOK, dtos)
}
