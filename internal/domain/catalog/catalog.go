// Package catalog defines the purchasable product records of the store.
package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrNoVariants is returned when a product has no purchasable options.
	ErrNoVariants = errors.New("product must have at least one variant")
)

// Product is a catalog item with one or more weight/price variants.
type Product struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	Name        string    `json:"name"`
	Strain      string    `json:"strain"`
	Potency     float64   `json:"potency"`
	Variants    []Variant `json:"variants"`
	Stock       int       `json:"stock"`
	Published   bool      `json:"published"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// Variant is a purchasable size of a product with its own price and stock.
type Variant struct {
	Label  string          `json:"label"`
	Price  decimal.Decimal `json:"price"`
	Weight float64         `json:"weight"`
	Stock  int             `json:"stock"`
}

// Purchasable reports whether the variant may be added to a cart.
// Variants without stock stay visible but cannot be bought.
func (v Variant) Purchasable() bool {
	return v.Stock > 0
}

// InvalidProductError describes why a product record was rejected.
type InvalidProductError struct {
	ProductID string
	Reason    string
}

func (e *InvalidProductError) Error() string {
	return fmt.Sprintf("invalid product %s: %s", e.ProductID, e.Reason)
}

// Validate checks the record invariants staff edits must preserve.
func (p *Product) Validate() error {
	if p.ID == "" {
		return &InvalidProductError{Reason: "id required"}
	}
	if p.Name == "" {
		return &InvalidProductError{ProductID: p.ID, Reason: "name required"}
	}
	if len(p.Variants) == 0 {
		return errors.Wrapf(ErrNoVariants, "product %s", p.ID)
	}
	if p.Stock < 0 {
		return &InvalidProductError{ProductID: p.ID, Reason: "stock must not be negative"}
	}
	// Cart lines are keyed by variant label.
	labels := make(map[string]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		if v.Label == "" {
			return &InvalidProductError{ProductID: p.ID, Reason: "variant label required"}
		}
		if _, dup := labels[v.Label]; dup {
			return &InvalidProductError{ProductID: p.ID, Reason: fmt.Sprintf("duplicate variant label %s", v.Label)}
		}
		labels[v.Label] = struct{}{}
		if v.Price.IsNegative() {
			return &InvalidProductError{ProductID: p.ID, Reason: fmt.Sprintf("variant %s: price must not be negative", v.Label)}
		}
		if v.Stock < 0 {
			return &InvalidProductError{ProductID: p.ID, Reason: fmt.Sprintf("variant %s: stock must not be negative", v.Label)}
		}
	}
	return nil
}

// Variant returns the variant at index i.
func (p *Product) Variant(i int) (Variant, bool) {
	if i < 0 || i >= len(p.Variants) {
		return Variant{}, false
	}
	return p.Variants[i], true
}

// Clone returns a deep copy so cart snapshots do not alias catalog records.
func (p Product) Clone() Product {
	p.Variants = append([]Variant(nil), p.Variants...)
	return p
}

// Published filters products down to those offered for purchase.
func Published(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Published {
			out = append(out, p)
		}
	}
	return out
}

// Repository defines catalog persistence.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Save(ctx context.Context, p *Product) error
}
