package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/settings"
)

var (
	// ErrNotFound is returned when an order id is unknown.
	ErrNotFound = errors.New("order not found")
	// ErrUnknownStatus is returned by ParseStatus.
	ErrUnknownStatus = errors.New("unknown order status")
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusAccepted  Status = "accepted"
	StatusReady     Status = "ready"
	StatusPickedUp  Status = "picked_up"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed next states. Picked up and cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusPlaced:   {StatusAccepted, StatusCancelled},
	StatusAccepted: {StatusReady, StatusCancelled},
	StatusReady:    {StatusPickedUp, StatusCancelled},
}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPlaced, StatusAccepted, StatusReady, StatusPickedUp, StatusCancelled:
		return st, nil
	default:
		return "", errors.Wrapf(ErrUnknownStatus, "%q", s)
	}
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// InvalidTransitionError is returned for a disallowed status change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// Transition validates a status change.
func Transition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}

// Order is a finalized purchase. Only Status (and UpdatedAt) change after
// creation; cancelled orders are kept.
type Order struct {
	ID            string                 `json:"id"`
	CustomerName  string                 `json:"customerName"`
	CustomerPhone string                 `json:"customerPhone"`
	CustomerEmail string                 `json:"customerEmail,omitempty"`
	Address       string                 `json:"address,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	Lines         []cart.Line            `json:"lines"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	Discount      decimal.Decimal        `json:"discount"`
	Tax           decimal.Decimal        `json:"tax"`
	DeliveryFee   decimal.Decimal        `json:"deliveryFee"`
	Total         decimal.Decimal        `json:"total"`
	Status        Status                 `json:"status"`
	Fulfillment   pricing.Fulfillment    `json:"fulfillment"`
	Payment       settings.PaymentMethod `json:"payment"`
	ReferralCode  string                 `json:"referralCode"`
	AppliedCode   string                 `json:"appliedCode,omitempty"`
	ZoneName      string                 `json:"zoneName,omitempty"`
	LoyaltyPoints int64                  `json:"loyaltyPoints"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// ComputedTotal derives the total from the stored components.
func (o *Order) ComputedTotal() decimal.Decimal {
	return o.Subtotal.Sub(o.Discount).Add(o.Tax).Add(o.DeliveryFee)
}

// Repository persists orders. Save inserts unseen ids and replaces known ones.
type Repository interface {
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Save(ctx context.Context, o *Order) error
}
