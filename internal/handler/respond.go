package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/cafe24"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/toss"
)

// envelope is the uniform response body shape.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any) {
	respondMessage(w, status, "", data)
}

func respondMessage(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: status < 400,
		Message: message,
		Data:    data,
	})
}

// respondError maps domain errors onto HTTP statuses. Vendor rejections keep
// their human-readable message; everything unexpected collapses to a plain
// 500 so internals never leak.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		apiErr  *cafe24.APIError
		authErr *cafe24.AuthError
		payErr  *toss.PaymentError
	)
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		respondMessage(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity):
		respondMessage(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &payErr):
		respondMessage(w, http.StatusBadRequest, payErr.Message, nil)
	case errors.As(err, &authErr):
		respondMessage(w, http.StatusUnauthorized, "vendor authorization failed", nil)
	case errors.As(err, &apiErr):
		respondMessage(w, http.StatusBadGateway, apiErr.Message, nil)
	default:
		zctx.From(r.Context()).Error("Unhandled error", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
