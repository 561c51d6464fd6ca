// Package cart aggregates the products a shopper intends to buy.
package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// ErrInvalidQuantity is returned when a non-positive quantity is added.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// VariantNotFoundError indicates a variant index outside the product's range.
type VariantNotFoundError struct {
	ProductID string
	Index     int
}

func (e *VariantNotFoundError) Error() string {
	return fmt.Sprintf("product %s has no variant %d", e.ProductID, e.Index)
}

// Line is one cart entry. The product and variant are copies taken when the
// line was added, so later catalog edits do not change its price.
type Line struct {
	Product  catalog.Product `json:"product"`
	Variant  catalog.Variant `json:"variant"`
	Quantity int             `json:"quantity"`
}

// Key identifies a line by product and variant label.
type Key struct {
	ProductID    string
	VariantLabel string
}

// Key returns the identity of the line.
func (l Line) Key() Key {
	return Key{ProductID: l.Product.ID, VariantLabel: l.Variant.Label}
}

// Total returns price × quantity.
func (l Line) Total() decimal.Decimal {
	return l.Variant.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Persister stores the full cart snapshot after each mutation.
type Persister interface {
	SaveLines(ctx context.Context, lines []Line) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, lines []Line) error

// SaveLines calls f.
func (f PersisterFunc) SaveLines(ctx context.Context, lines []Line) error {
	return f(ctx, lines)
}

// Cart holds at most one line per Key. It performs no stock checks; callers
// must guard against exceeding variant stock before calling Add.
type Cart struct {
	lines []Line
	store Persister
}

// New restores a cart from a persisted snapshot.
func New(lines []Line, store Persister) *Cart {
	return &Cart{lines: cloneLines(lines), store: store}
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []Line {
	return cloneLines(c.lines)
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int { return len(c.lines) }

// Quantity returns the quantity held for key, or 0.
func (c *Cart) Quantity(key Key) int {
	if i := c.index(key); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Subtotal sums price × quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	return Subtotal(c.lines)
}

// Add merges quantity into the line for (product, variant) or appends a new
// one. The change is persisted before Add returns; on persistence failure
// the cart keeps its previous contents.
func (c *Cart) Add(ctx context.Context, p catalog.Product, variantIndex, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	v, ok := p.Variant(variantIndex)
	if !ok {
		return &VariantNotFoundError{ProductID: p.ID, Index: variantIndex}
	}

	next := cloneLines(c.lines)
	key := Key{ProductID: p.ID, VariantLabel: v.Label}
	if i := indexOf(next, key); i >= 0 {
		next[i].Quantity += quantity
	} else {
		next = append(next, Line{Product: p.Clone(), Variant: v, Quantity: quantity})
	}
	return c.commit(ctx, next)
}

// Remove drops every line matching the key. Removing an absent key is a no-op
// and does not touch storage.
func (c *Cart) Remove(ctx context.Context, productID, variantLabel string) error {
	key := Key{ProductID: productID, VariantLabel: variantLabel}
	next := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		if l.Key() != key {
			next = append(next, l)
		}
	}
	if len(next) == len(c.lines) {
		return nil
	}
	return c.commit(ctx, next)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	return c.commit(ctx, nil)
}

func (c *Cart) commit(ctx context.Context, next []Line) error {
	if c.store != nil {
		if err := c.store.SaveLines(ctx, cloneLines(next)); err != nil {
			return errors.Wrap(err, "persist cart")
		}
	}
	c.lines = next
	return nil
}

func (c *Cart) index(key Key) int {
	return indexOf(c.lines, key)
}

// Subtotal sums price × quantity over lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

func indexOf(lines []Line, key Key) int {
	for i, l := range lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}

func cloneLines(lines []Line) []Line {
	if len(lines) == 0 {
		return nil
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		l.Product = l.Product.Clone()
		out[i] = l
	}
	return out
}
