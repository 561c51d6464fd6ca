package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/settings"
)

// AdminSaveProduct creates or replaces a catalog product. The id in the path
// wins over the body.
func (h *Handler) AdminSaveProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decode(r, &p); err != nil {
		fail(w, r, err)
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := p.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.products.Save(r.Context(), &p); err != nil {
		fail(w, r, err)
		return
	}
	zctx.From(r.Context()).Info("Product saved", zap.String("product_id", p.ID))
	writeJSON(w, http.StatusOK, h.product(p))
}

// AdminGetSettings returns the store settings.
func (h *Handler) AdminGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.settings.Get(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// AdminSaveSettings validates and replaces the store settings.
func (h *Handler) AdminSaveSettings(w http.ResponseWriter, r *http.Request) {
	var cfg settings.Settings
	if err := decode(r, &cfg); err != nil {
		fail(w, r, err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.settings.Save(r.Context(), cfg); err != nil {
		fail(w, r, err)
		return
	}
	zctx.From(r.Context()).Info("Settings saved")
	writeJSON(w, http.StatusOK, cfg)
}
