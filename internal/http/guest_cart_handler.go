package http

import (
	"context"
	"net/http"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AddItemRequestDTO struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gt=0,lte=99"`
}

type SetQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

type GuestCartLineDTO struct {
	ProductID string              `json:"product_id"`
	Quantity  int                 `json:"quantity"`
	Product   *domain.ProductInfo `json:"product,omitempty"`
}

type GuestCartDTO struct {
	GuestID string             `json:"guest_id"`
	Items   []GuestCartLineDTO `json:"items"`
	Count   int                `json:"count"`
}

// GET /api/v1/guest/cart
func (a *API) GetGuestCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	a.respondJSON(w, http.StatusOK, a.guestCartView(ctx, r))
}

// POST /api/v1/guest/cart/items
func (a *API) AddGuestItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	var req AddItemRequestDTO
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if _, err := a.catalog.GetProduct(ctx, req.ProductID); err != nil {
		a.handleError(w, r, err)
		return
	}

	if err := a.guestStore(r).Add(ctx, req.ProductID, req.Quantity); err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusCreated, a.guestCartView(ctx, r))
}

// PUT /api/v1/guest/cart/items/{product_id}
// A quantity of 0 removes the line.
func (a *API) UpdateGuestItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	var req SetQuantityRequestDTO
	if !a.decodeJSON(w, r, &req) {
		return
	}

	if err := a.guestStore(r).Update(ctx, chi.URLParam(r, "product_id"), req.Quantity); err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, a.guestCartView(ctx, r))
}

// DELETE /api/v1/guest/cart/items/{product_id}
func (a *API) RemoveGuestItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	if err := a.guestStore(r).Remove(ctx, chi.URLParam(r, "product_id")); err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, a.guestCartView(ctx, r))
}

// DELETE /api/v1/guest/cart
func (a *API) ClearGuestCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	if err := a.guestStore(r).Clear(ctx); err != nil {
		a.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/guest/cart/count
func (a *API) GuestCartCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	a.respondJSON(w, http.StatusOK, map[string]int{"count": a.guestStore(r).Count(ctx)})
}

// guestCartView attaches catalog data to the guest cart. Catalog failures
// only drop the product details.
func (a *API) guestCartView(ctx context.Context, r *http.Request) GuestCartDTO {
	items := a.guestStore(r).Get(ctx)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := a.catalog.GetProducts(ctx, ids)
	if err != nil {
		a.log.Warn("failed to load products for guest cart", zap.Error(err))
	}

	view := GuestCartDTO{GuestID: getGuestID(r.Context()), Items: make([]GuestCartLineDTO, 0, len(items))}
	for _, item := range items {
		line := GuestCartLineDTO{ProductID: item.ProductID, Quantity: item.Quantity}
		if p, ok := products[item.ProductID]; ok {
			info := p.Info()
			line.Product = &info
		}
		view.Items = append(view.Items, line)
		view.Count += item.Quantity
	}
	return view
}
