// Package handler exposes the storefront over HTTP with a chi router.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/settings"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative product image paths.
	ImageBaseURL string
	// AdminKey guards the /admin routes. Empty disables them.
	AdminKey string
	// Pepper keys the HMAC used to compare admin keys.
	Pepper []byte
}

// Deps are the services the Handler delegates to.
type Deps struct {
	Checkout  *checkout.Service
	Orders    *order.Service
	Customers *customer.Service
	Products  catalog.Repository
	Settings  settings.Repository
}

// Handler serves the storefront and admin API.
type Handler struct {
	checkout     *checkout.Service
	orders       *order.Service
	customers    *customer.Service
	products     catalog.Repository
	settings     settings.Repository
	admin        *AdminGuard
	imageBaseURL string
}

// New constructs a Handler.
func New(cfg Config, d Deps) *Handler {
	return &Handler{
		checkout:     d.Checkout,
		orders:       d.Orders,
		customers:    d.Customers,
		products:     d.Products,
		settings:     d.Settings,
		admin:        NewAdminGuard(cfg.AdminKey, cfg.Pepper),
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Mount registers the API under r. Shopper routes run behind the session
// middleware; admin routes behind the admin key check.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.Session())

			r.Get("/products", h.ListProducts)

			r.Get("/cart", h.GetCart)
			r.Delete("/cart", h.ClearCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Delete("/cart/items/{productID}/{variant}", h.RemoveCartItem)

			r.Put("/checkout/contact", h.SetContact)
			r.Put("/checkout/fulfillment", h.SetFulfillment)
			r.Post("/checkout/location", h.ResolveLocation)
			r.Post("/checkout/promotion", h.ApplyPromotion)
			r.Delete("/checkout/promotion", h.RemovePromotion)
			r.Get("/checkout/quote", h.GetQuote)
			r.Post("/checkout/orders", h.PlaceOrder)

			r.Get("/orders", h.ListMyOrders)
			r.Post("/customers", h.Register)
			r.Post("/customers/login", h.Login)
			r.Post("/customers/logout", h.Logout)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.admin.Middleware)

			r.Get("/orders", h.AdminListOrders)
			r.Patch("/orders/{id}/status", h.AdminUpdateOrderStatus)
			r.Put("/products/{id}", h.AdminSaveProduct)
			r.Get("/settings", h.AdminGetSettings)
			r.Put("/settings", h.AdminSaveSettings)
		})
	})
}

// Router returns a chi router with the API mounted and the given middlewares
// applied in order.
func (h *Handler) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.Mount(r)
	return r
}
