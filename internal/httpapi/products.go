package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1, 1, 1000)
	limit := intParam(r, "limit", 12, 1, 50)

	listed, err := h.products.List(r.Context(), page, limit)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	out := make([]ProductResponse, 0, len(listed))
	for _, lp := range listed {
		out = append(out, mapProductToResponse(lp.Product, lp.LocalID, "", ""))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out, "page": page})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, mapProductToResponse(product, 0, q.Get("color"), q.Get("size")))
}

func (h *Handler) getVariants(w http.ResponseWriter, r *http.Request) {
	product, options, err := h.products.Variants(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VariantsResponse{
		ProductID: product.ID,
		Variants:  mapVariantsToResponse(product.Variants),
		Options:   options,
	})
}
