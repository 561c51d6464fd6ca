package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/settings"
)

// money renders an amount rounded to cents.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type variantResponse struct {
	Index     int     `json:"index"`
	Label     string  `json:"label"`
	Price     string  `json:"price"`
	Weight    float64 `json:"weight"`
	Stock     int     `json:"stock"`
	Available bool    `json:"available"`
}

type productResponse struct {
	ID          string            `json:"id"`
	Category    string            `json:"category"`
	Brand       string            `json:"brand"`
	Name        string            `json:"name"`
	Strain      string            `json:"strain,omitempty"`
	Potency     float64           `json:"potency"`
	Description string            `json:"description,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	Stock       int               `json:"stock"`
	Variants    []variantResponse `json:"variants"`
}

func (h *Handler) product(p catalog.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Category:    p.Category,
		Brand:       p.Brand,
		Name:        p.Name,
		Strain:      p.Strain,
		Potency:     p.Potency,
		Description: p.Description,
		ImageURL:    h.imageURL(p.ImageURL),
		Stock:       p.Stock,
		Variants:    make([]variantResponse, len(p.Variants)),
	}
	for i, v := range p.Variants {
		resp.Variants[i] = variantResponse{
			Index:     i,
			Label:     v.Label,
			Price:     money(v.Price),
			Weight:    v.Weight,
			Stock:     v.Stock,
			Available: v.Purchasable(),
		}
	}
	return resp
}

// imageURL prefixes relative paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

type lineResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	Variant   string `json:"variant"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
}

func lines(ls []cart.Line) []lineResponse {
	out := make([]lineResponse, len(ls))
	for i, l := range ls {
		out[i] = lineResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Brand:     l.Product.Brand,
			Variant:   l.Variant.Label,
			Price:     money(l.Variant.Price),
			Quantity:  l.Quantity,
			Total:     money(l.Total()),
		}
	}
	return out
}

type cartResponse struct {
	Lines    []lineResponse `json:"lines"`
	Count    int            `json:"count"`
	Subtotal string         `json:"subtotal"`
}

func cartOf(ls []cart.Line) cartResponse {
	count := 0
	for _, l := range ls {
		count += l.Quantity
	}
	return cartResponse{
		Lines:    lines(ls),
		Count:    count,
		Subtotal: money(cart.Subtotal(ls)),
	}
}

type zoneResponse struct {
	Name     string `json:"name"`
	Fee      string `json:"fee"`
	MinOrder string `json:"minOrder"`
}

func zoneOf(z *delivery.Zone) *zoneResponse {
	if z == nil {
		return nil
	}
	return &zoneResponse{Name: z.Name, Fee: money(z.Fee), MinOrder: money(z.MinOrder)}
}

type quoteResponse struct {
	Lines           []lineResponse `json:"lines"`
	Subtotal        string         `json:"subtotal"`
	Discount        string         `json:"discount"`
	Tax             string         `json:"tax"`
	DeliveryFee     string         `json:"deliveryFee"`
	Total           string         `json:"total"`
	Fulfillment     string         `json:"fulfillment"`
	Payment         string         `json:"payment"`
	AppliedCode     string         `json:"appliedCode,omitempty"`
	Zone            *zoneResponse  `json:"zone,omitempty"`
	MeetsMinimum    bool           `json:"meetsMinimum"`
	DeliveryBlocked bool           `json:"deliveryBlocked"`
	Ready           bool           `json:"ready"`
	Blockers        []string       `json:"blockers"`
}

func quoteOf(q *checkout.Quote) quoteResponse {
	b := q.Breakdown.Rounded()
	blockers := make([]string, len(q.Blockers))
	for i, err := range q.Blockers {
		blockers[i] = err.Error()
	}
	return quoteResponse{
		Lines:           lines(q.Lines),
		Subtotal:        money(b.Subtotal),
		Discount:        money(b.Discount),
		Tax:             money(b.Tax),
		DeliveryFee:     money(b.DeliveryFee),
		Total:           money(b.Total),
		Fulfillment:     string(q.Fulfillment),
		Payment:         string(q.Payment),
		AppliedCode:     q.AppliedCode,
		Zone:            zoneOf(q.Zone),
		MeetsMinimum:    b.MeetsMinimum,
		DeliveryBlocked: b.DeliveryBlocked,
		Ready:           q.Ready(),
		Blockers:        blockers,
	}
}

type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	CustomerName  string         `json:"customerName"`
	CustomerPhone string         `json:"customerPhone"`
	CustomerEmail string         `json:"customerEmail,omitempty"`
	Address       string         `json:"address,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Lines         []lineResponse `json:"lines"`
	Subtotal      string         `json:"subtotal"`
	Discount      string         `json:"discount"`
	Tax           string         `json:"tax"`
	DeliveryFee   string         `json:"deliveryFee"`
	Total         string         `json:"total"`
	Fulfillment   string         `json:"fulfillment"`
	Payment       string         `json:"payment"`
	ReferralCode  string         `json:"referralCode"`
	AppliedCode   string         `json:"appliedCode,omitempty"`
	ZoneName      string         `json:"zoneName,omitempty"`
	LoyaltyPoints int64          `json:"loyaltyPoints"`
	Message       string         `json:"message,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func orderOf(o *order.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		Status:        string(o.Status),
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		CustomerEmail: o.CustomerEmail,
		Address:       o.Address,
		Notes:         o.Notes,
		Lines:         lines(o.Lines),
		Subtotal:      money(o.Subtotal),
		Discount:      money(o.Discount),
		Tax:           money(o.Tax),
		DeliveryFee:   money(o.DeliveryFee),
		Total:         money(o.Total),
		Fulfillment:   string(o.Fulfillment),
		Payment:       string(o.Payment),
		ReferralCode:  o.ReferralCode,
		AppliedCode:   o.AppliedCode,
		ZoneName:      o.ZoneName,
		LoyaltyPoints: o.LoyaltyPoints,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// withMessage attaches the customer notification rendered from the store
// template.
func withMessage(resp orderResponse, o *order.Order, cfg settings.Settings) orderResponse {
	resp.Message = cfg.RenderMessage(settings.MessageFields{
		Name:    o.CustomerName,
		OrderID: o.ID,
		Total:   o.Total,
		Status:  string(o.Status),
		Code:    o.ReferralCode,
	})
	return resp
}

func ordersOf(os []order.Order) []orderResponse {
	out := make([]orderResponse, len(os))
	for i := range os {
		out[i] = orderOf(&os[i])
	}
	return out
}

type customerResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Email    string    `json:"email,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}
