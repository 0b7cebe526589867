package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := product.ListQuery{
		Page:            intParam(q.Get("page"), 1),
		Limit:           intParam(q.Get("limit"), 10),
		CategoryNo:      intParam(q.Get("category"), 0),
		IncludeChildren: q.Get("include_children") != "false",
	}

	page, err := h.catalog.List(r.Context(), query)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, page)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, cats)
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
