package http

import (
	"net/http"

	"github.com/fjod/skincare-cart/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
}

func convertProduct(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
	}
}

// GET /api/v1/products
func (a *API) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		a.handleError(w, r, err)
		return
	}

	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, convertProduct(p))
	}
	a.respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/products/{product_id}
func (a *API) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.requestContext(r)
	defer cancel()

	p, err := a.catalog.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	a.respondJSON(w, http.StatusOK, convertProduct(p))
}
