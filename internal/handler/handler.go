// Package handler implements the HTTP boundary of the storefront API.
// Responses use a uniform envelope of the form {success, message, data}.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/cafe24"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/product"
)

// VendorAuth is the OAuth slice of the vendor client the auth endpoints use.
type VendorAuth interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (cafe24.Token, error)
	Refresh(ctx context.Context) (cafe24.Token, error)
}

// Handler holds all HTTP endpoints and their dependencies.
type Handler struct {
	catalog  *product.Service
	carts    *cart.Service
	orders   *order.Service
	payments *payment.Service
	auth     VendorAuth
}

func New(
	catalog *product.Service,
	carts *cart.Service,
	orders *order.Service,
	payments *payment.Service,
	auth VendorAuth,
) *Handler {
	return &Handler{
		catalog:  catalog,
		carts:    carts,
		orders:   orders,
		payments: payments,
		auth:     auth,
	}
}

// Routes builds the API router. The caller mounts it under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{productID}", h.getProduct)
	})
	r.Get("/categories", h.listCategories)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addCartItem)
		r.Put("/items/{itemID}", h.updateCartItem)
		r.Delete("/items/{itemID}", h.removeCartItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/", h.listOrders)
		r.Get("/{orderID}", h.getOrder)
		r.Post("/{orderID}/sync", h.syncOrder)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Get("/client-key", h.paymentClientKey)
		r.Post("/confirm", h.confirmPayment)
		r.Get("/{paymentKey}", h.getPayment)
		r.Post("/{paymentKey}/cancel", h.cancelPayment)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", h.authLogin)
		r.Get("/login-url", h.authLoginURL)
		r.Get("/callback", h.authCallback)
		r.Post("/refresh", h.authRefresh)
	})

	return r
}
