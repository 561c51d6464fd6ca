package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/order"
)

// ListMyOrders returns the orders placed with the logged-in customer's
// phone. Anonymous sessions get an empty list.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	st, err := h.checkout.Session(r.Context(), sessionID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	if st.CustomerID == "" {
		writeJSON(w, http.StatusOK, []orderResponse{})
		return
	}
	orders, err := h.orders.ListByPhone(r.Context(), st.CustomerID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ordersOf(orders))
}

// AdminListOrders returns every order, newest first.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ordersOf(orders))
}

type statusRequest struct {
	Status string `json:"status"`
}

// AdminUpdateOrderStatus moves an order through its lifecycle.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	to, err := order.ParseStatus(req.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := orderOf(o)
	if cfg, err := h.settings.Get(r.Context()); err == nil {
		resp = withMessage(resp, o, cfg)
	}
	writeJSON(w, http.StatusOK, resp)
}
