package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/order"
)

type placeOrderRequest struct {
	Shipping order.ShippingAddress `json:"shipping_address"`
}

// placeOrder creates an order from the request's cart. The payment key of
// the already-confirmed payment arrives as a query parameter, matching the
// widget redirect flow. Vendor mirroring failure is reported in the message
// but the order itself succeeds.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	id := cartID(r)
	if id == "" {
		respondMessage(w, http.StatusBadRequest, "no cart", nil)
		return
	}

	res, err := h.orders.PlaceOrder(r.Context(), id, r.URL.Query().Get("payment_key"), req.Shipping)
	if err != nil {
		respondError(w, r, err)
		return
	}

	msg := "order placed"
	if res.Mirror == order.MirrorFailed {
		msg = "order placed; mall submission pending"
	}
	respondMessage(w, http.StatusCreated, msg, res.Order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.orders.List(r.Context(), intParam(q.Get("limit"), 20), intParam(q.Get("offset"), 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) syncOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.SyncStatus(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, o)
}
