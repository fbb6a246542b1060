package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/skincare-cart/internal/catalog"
	"github.com/fjod/skincare-cart/internal/localcart"
	"github.com/fjod/skincare-cart/internal/orders"
	"github.com/fjod/skincare-cart/internal/payment"
	"github.com/fjod/skincare-cart/internal/repository"
	"github.com/fjod/skincare-cart/internal/service"
	"github.com/fjod/skincare-cart/internal/validation"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(log *zap.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("failed to encode response", zap.Int("status", status), zap.Error(err))
	}
}

func writeError(log *zap.Logger, w http.ResponseWriter, status int, code, message string) {
	writeJSON(log, w, status, ErrorResponse{Error: message, Code: code})
}

func (a *API) respondJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(a.log, w, status, data)
}

func (a *API) respondError(w http.ResponseWriter, status int, code, message string) {
	writeError(a.log, w, status, code, message)
}

// decodeJSON reads the request body into dst and validates it.
// It writes the error response itself and reports whether decoding succeeded.
func (a *API) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		a.respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "request validation failed",
			Code:    "validation_failed",
			Details: validation.Details(err),
		})
		return false
	}
	return true
}

// handleError maps domain errors to HTTP status codes
func (a *API) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var orderErr *orders.OrderError
	if errors.As(err, &orderErr) {
		a.handleOrderError(w, r, orderErr)
		return
	}

	var (
		status  int
		code    string
		message = err.Error()
		details any
	)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		status, code = http.StatusNotFound, "product_not_found"
	case errors.Is(err, repository.ErrItemNotFound):
		status, code = http.StatusNotFound, "item_not_found"
	case errors.Is(err, orders.ErrOrderNotFound):
		status, code = http.StatusNotFound, "order_not_found"
	case errors.Is(err, orders.ErrDuplicateOrder):
		status, code = http.StatusConflict, "order_exists"
	case errors.Is(err, service.ErrInvalidQuantity), errors.Is(err, localcart.ErrInvalidQuantity):
		status, code = http.StatusBadRequest, "invalid_quantity"
	case errors.Is(err, orders.ErrEmptyOrder):
		status, code = http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, orders.ErrTotalsMismatch):
		status, code = http.StatusUnprocessableEntity, "totals_mismatch"
	case errors.Is(err, orders.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "invalid_request"
		details = validation.Details(err)
	case errors.Is(err, context.DeadlineExceeded):
		status, code, message = http.StatusGatewayTimeout, "timeout", "request timed out"
	default:
		a.log.Error("request failed", zap.String("path", r.URL.Path), zap.String("request_id", getRequestID(r.Context())), zap.Error(err))
		status, code, message = http.StatusInternalServerError, "internal_error", "internal server error"
	}
	a.respondJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

type orderErrorDetails struct {
	PaymentReference string `json:"payment_reference"`
	Support          string `json:"support"`
}

// handleOrderError reports a failed guest order. The shopper may have been
// charged, so the payment reference is always echoed back.
func (a *API) handleOrderError(w http.ResponseWriter, r *http.Request, err *orders.OrderError) {
	status, code := http.StatusInternalServerError, "order_failed"
	switch {
	case errors.Is(err, orders.ErrTotalsMismatch):
		status, code = http.StatusUnprocessableEntity, "totals_mismatch"
	case errors.Is(err, orders.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, orders.ErrPaymentNotConfirmed), errors.Is(err, payment.ErrNotPaid):
		status, code = http.StatusPaymentRequired, "payment_not_confirmed"
	case errors.Is(err, payment.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "payment_gateway_unavailable"
	case errors.Is(err, orders.ErrDuplicateOrder):
		status, code = http.StatusConflict, "order_exists"
	default:
		a.log.Error("guest order failed", zap.String("request_id", getRequestID(r.Context())), zap.Error(err))
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "we could not create your order"
	}
	a.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
		Details: orderErrorDetails{
			PaymentReference: err.PaymentReference,
			Support:          "contact support with your payment reference",
		},
	})
}
