package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/settings"
)

type contactRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// SetContact stores the draft contact details of the session.
func (h *Handler) SetContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	err := h.checkout.SetContact(r.Context(), sessionID(r), order.Contact{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type fulfillmentRequest struct {
	Fulfillment string `json:"fulfillment"`
	Payment     string `json:"payment"`
}

// SetFulfillment selects pickup or delivery and the payment method.
func (h *Handler) SetFulfillment(w http.ResponseWriter, r *http.Request) {
	var req fulfillmentRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	f, err := pricing.ParseFulfillment(req.Fulfillment)
	if err != nil {
		fail(w, r, err)
		return
	}
	pay := settings.PaymentMethod(req.Payment)
	if pay == "" {
		pay = settings.PaymentCash
	}
	if err := h.checkout.SetFulfillment(r.Context(), sessionID(r), f, pay); err != nil {
		fail(w, r, err)
		return
	}
	h.GetQuote(w, r)
}

// locationRequest is what the browser reports after asking for the
// shopper's position: coordinates, or the reason it could not get them.
type locationRequest struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Error string   `json:"error"`
}

func (req locationRequest) locator() (delivery.Locator, error) {
	switch {
	case req.Error != "":
		return delivery.Denied(req.Error), nil
	case req.Lat == nil || req.Lon == nil:
		return nil, invalid("lat and lon are required")
	case *req.Lat < -90 || *req.Lat > 90 || *req.Lon < -180 || *req.Lon > 180:
		return nil, invalid("coordinates out of range")
	default:
		return delivery.Fixed(delivery.Coordinate{Lat: *req.Lat, Lon: *req.Lon}), nil
	}
}

type resolutionResponse struct {
	Zone     zoneResponse `json:"zone"`
	Distance float64      `json:"distanceMiles"`
}

// ResolveLocation picks the delivery zone for the reported position.
func (h *Handler) ResolveLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	loc, err := req.locator()
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := h.checkout.ResolveZone(r.Context(), sessionID(r), loc)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolutionResponse{
		Zone:     *zoneOf(&res.Zone),
		Distance: res.Distance,
	})
}

type promotionRequest struct {
	Code string `json:"code"`
}

// ApplyPromotion applies a referral code to the session.
func (h *Handler) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	var req promotionRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	if _, err := h.checkout.ApplyPromotion(r.Context(), sessionID(r), req.Code); err != nil {
		fail(w, r, err)
		return
	}
	h.GetQuote(w, r)
}

// RemovePromotion clears the applied code.
func (h *Handler) RemovePromotion(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.RemovePromotion(r.Context(), sessionID(r)); err != nil {
		fail(w, r, err)
		return
	}
	h.GetQuote(w, r)
}

// GetQuote returns the priced breakdown and what still blocks checkout.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.checkout.Quote(r.Context(), sessionID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteOf(q))
}

// PlaceOrder finalizes the session cart into an order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkout.PlaceOrder(r.Context(), sessionID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := orderOf(o)
	if cfg, err := h.settings.Get(r.Context()); err == nil {
		resp = withMessage(resp, o, cfg)
	}
	writeJSON(w, http.StatusCreated, resp)
}
