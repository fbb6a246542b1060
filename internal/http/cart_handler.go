package http

import (
	"net/http"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/go-chi/chi/v5"
)

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"gt=0,lte=99"`
}

type CartDTO struct {
	UserID string                  `json:"user_id"`
	Items  []domain.ServerCartItem `json:"items"`
	Count  int                     `json:"count"`
}

// GET /api/v1/cart
func (a *API) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	userID := getUserID(r.Context())
	items, err := a.carts.Items(ctx, userID)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, cartView(userID, items))
}

// POST /api/v1/cart/items
func (a *API) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	var req AddItemRequestDTO
	if !a.decodeJSON(w, r, &req) {
		return
	}

	userID := getUserID(r.Context())
	if err := a.carts.AddItem(ctx, userID, req.ProductID, req.Quantity); err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondCart(w, r, http.StatusCreated)
}

// PUT /api/v1/cart/items/{cart_item_id}
func (a *API) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !a.decodeJSON(w, r, &req) {
		return
	}

	userID := getUserID(r.Context())
	if err := a.carts.SetQuantity(ctx, userID, chi.URLParam(r, "cart_item_id"), req.Quantity); err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondCart(w, r, http.StatusOK)
}

// DELETE /api/v1/cart/items/{cart_item_id}
func (a *API) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	userID := getUserID(r.Context())
	if err := a.carts.RemoveItem(ctx, userID, chi.URLParam(r, "cart_item_id")); err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondCart(w, r, http.StatusOK)
}

// DELETE /api/v1/cart
func (a *API) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	if err := a.carts.ClearCart(ctx, getUserID(r.Context())); err != nil {
		a.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) respondCart(w http.ResponseWriter, r *http.Request, status int) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	userID := getUserID(r.Context())
	items, err := a.carts.Items(ctx, userID)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, status, cartView(userID, items))
}

func cartView(userID string, items []domain.ServerCartItem) CartDTO {
	view := CartDTO{UserID: userID, Items: items}
	if view.Items == nil {
		view.Items = []domain.ServerCartItem{}
	}
	for _, item := range items {
		view.Count += item.Quantity
	}
	return view
}
