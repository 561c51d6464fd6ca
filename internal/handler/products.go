package handler

import (
	"net/http"
)

// ListProducts returns the published catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.checkout.Products(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = h.product(p)
	}
	writeJSON(w, http.StatusOK, resp)
}
