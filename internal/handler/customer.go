package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/customer"
)

type registerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

func customerOf(c *customer.Customer) customerResponse {
	return customerResponse{
		ID:       c.ID,
		Name:     c.Name,
		Phone:    c.Phone,
		Email:    c.Email,
		JoinedAt: c.JoinedAt,
	}
}

// Register creates an account and signs the session in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.customers.Register(r.Context(), customer.RegisterRequest{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		PIN:   req.PIN,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.checkout.BindCustomer(r.Context(), sessionID(r), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customerOf(c))
}

type loginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

// Login signs the session in with phone and PIN.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.customers.Login(r.Context(), req.Phone, req.PIN)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.checkout.BindCustomer(r.Context(), sessionID(r), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerOf(c))
}

// Logout signs the session out. The cart is kept.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Logout(r.Context(), sessionID(r)); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
