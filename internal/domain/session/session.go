// Package session defines the per-browser state that survives reloads:
// the cart, the draft contact details and the checkout choices.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/settings"
)

// ErrNotFound is returned by Store.Load for an unknown session.
var ErrNotFound = errors.New("session not found")

// State is everything a checkout session owns.
type State struct {
	ID          string
	Lines       []cart.Line
	Contact     order.Contact
	Fulfillment pricing.Fulfillment
	Payment     settings.PaymentMethod
	AppliedCode string
	// Zone is the resolved delivery zone; nil until resolved and reset when
	// fulfillment leaves delivery.
	Zone *delivery.Zone
	// CustomerID is the logged-in customer's normalized phone, if any.
	CustomerID string
	UpdatedAt  time.Time
}

// New returns an empty pickup session.
func New(id string) *State {
	return &State{
		ID:          id,
		Fulfillment: pricing.Pickup,
		Payment:     settings.PaymentCash,
	}
}

// Store persists session state by id.
type Store interface {
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, s *State) error
	Delete(ctx context.Context, id string) error
}
