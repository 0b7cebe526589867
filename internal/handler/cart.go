package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/cart"
)

const (
	cartCookieName = "cart_id"
	cartCookieTTL  = 7 * 24 * time.Hour
)

// cartID reads the cart cookie. Empty when the browser has no cart yet.
func cartID(r *http.Request) string {
	c, err := r.Cookie(cartCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func setCartCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cartCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ensureCart resolves the request's cart, creating one and setting the cookie
// when needed. The cookie is refreshed on every hit to keep active carts
// alive.
func (h *Handler) ensureCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, error) {
	c, err := h.carts.GetOrCreate(r.Context(), cartID(r))
	if err != nil {
		return nil, err
	}
	setCartCookie(w, c.ID)
	return c, nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.ensureCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := h.ensureCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	c, err = h.carts.AddItem(r.Context(), c.ID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	c, err := h.ensureCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	c, err = h.carts.UpdateItem(r.Context(), c.ID, chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.ensureCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	c, err = h.carts.RemoveItem(r.Context(), c.ID, chi.URLParam(r, "itemID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.ensureCart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	c, err = h.carts.Clear(r.Context(), c.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, c)
}
