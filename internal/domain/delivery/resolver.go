package delivery

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Locator supplies the shopper's position. Implementations may block until
// the platform answers; a denial or failure is any non-nil error.
type Locator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Coordinate, error)

// Locate calls f.
func (f LocatorFunc) Locate(ctx context.Context) (Coordinate, error) {
	return f(ctx)
}

// Fixed returns a Locator that always reports pos.
func Fixed(pos Coordinate) Locator {
	return LocatorFunc(func(context.Context) (Coordinate, error) { return pos, nil })
}

// Denied returns a Locator that always fails with reason.
func Denied(reason string) Locator {
	return LocatorFunc(func(context.Context) (Coordinate, error) {
		return Coordinate{}, errors.New(reason)
	})
}

// Resolution is a successful zone lookup.
type Resolution struct {
	Zone     Zone
	Position Coordinate
	Distance float64
}

// Resolver turns a Locator answer into a zone. It applies no timeout of its
// own; the caller's context bounds the wait.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve asks the locator for a position and selects a zone for it.
// Failures are ErrLocationUnavailable, ErrNoCoverage or *MinimumOrderError.
func (r *Resolver) Resolve(ctx context.Context, loc Locator, zones []Zone, subtotal decimal.Decimal) (*Resolution, error) {
	pos, err := loc.Locate(ctx)
	if err != nil {
		return nil, errors.Wrap(ErrLocationUnavailable, err.Error())
	}
	z, err := Select(pos, zones, subtotal)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Zone:     z,
		Position: pos,
		Distance: Distance(pos, z.Center),
	}, nil
}
