package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) paymentClientKey(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]string{"client_key": h.payments.ClientKey()})
}

type confirmPaymentRequest struct {
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	res, err := h.payments.Confirm(r.Context(), req.PaymentKey, req.OrderID, req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	res, err := h.payments.Info(r.Context(), chi.URLParam(r, "paymentKey"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

type cancelPaymentRequest struct {
	Reason string `json:"reason"`
	// Amount limits the cancellation; absent means void the full balance.
	Amount *int64 `json:"amount,omitempty"`
}

func (h *Handler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	var req cancelPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Reason == "" {
		req.Reason = "customer request"
	}

	res, err := h.payments.Cancel(r.Context(), chi.URLParam(r, "paymentKey"), req.Reason, req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}
