package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/pkg/httpmiddleware"
)

func sessionID(r *http.Request) string {
	return httpmiddleware.SessionIDFromContext(r.Context())
}

// GetCart returns the session cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	st, err := h.checkout.Session(r.Context(), sessionID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartOf(st.Lines))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Variant   int    `json:"variant"`
	Quantity  int    `json:"quantity"`
}

// AddCartItem adds a product variant to the cart. Quantity defaults to 1.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if req.ProductID == "" {
		fail(w, r, invalid("productId is required"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	ls, err := h.checkout.AddItem(r.Context(), sessionID(r), req.ProductID, req.Variant, req.Quantity)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartOf(ls))
}

// RemoveCartItem removes the line for a product and variant label.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	variant, err := url.PathUnescape(chi.URLParam(r, "variant"))
	if err != nil {
		fail(w, r, invalid("invalid variant"))
		return
	}
	ls, err := h.checkout.RemoveItem(r.Context(), sessionID(r), chi.URLParam(r, "productID"), variant)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartOf(ls))
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.ClearCart(r.Context(), sessionID(r)); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
