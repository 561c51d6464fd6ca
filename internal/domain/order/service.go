package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/settings"
)

// Validation errors returned before anything is persisted.
var (
	ErrNameRequired       = errors.New("customer name is required")
	ErrPhoneRequired      = errors.New("customer phone is required")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrZoneRequired       = errors.New("a delivery zone must be resolved before checkout")
	ErrBelowMinimum       = errors.New("order subtotal is below the store minimum")
	ErrDeliveryDisabled   = errors.New("delivery is not available")
	ErrPaymentUnavailable = errors.New("payment method is not accepted")
	// ErrPersistence is matched by *PersistenceError.
	ErrPersistence = errors.New("failed to save order")
)

// PersistenceError is a storage failure while saving an order. It matches
// ErrPersistence and unwraps to the storage cause.
type PersistenceError struct {
	OrderID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return ErrPersistence.Error() + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// CodeIssuer hands out referral codes for new orders to share.
type CodeIssuer interface {
	Next(ctx context.Context) (string, error)
}

// Clearer empties the cart once the order is stored.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Contact is the customer information captured at checkout.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// PlaceRequest holds the input for placing an order.
type PlaceRequest struct {
	Lines       []cart.Line
	Contact     Contact
	Fulfillment pricing.Fulfillment
	Payment     settings.PaymentMethod
	Breakdown   pricing.Breakdown
	Settings    settings.Settings
	Zone        *delivery.Zone
	AppliedCode string
	Cart        Clearer
}

// Service places orders and applies staff status changes.
type Service struct {
	orders Repository
	codes  CodeIssuer
	now    func() time.Time
	newID  func() string
}

// NewService creates a Service.
func NewService(orders Repository, codes CodeIssuer) *Service {
	return &Service{
		orders: orders,
		codes:  codes,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Place validates the request, stores a new order with status placed and
// clears the cart. Nothing is stored when validation fails, and the cart is
// kept when storage fails.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	code, err := s.codes.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "issue referral code")
	}

	b := req.Breakdown
	now := s.now().UTC()
	o := &Order{
		ID:            s.newID(),
		CustomerName:  strings.TrimSpace(req.Contact.Name),
		CustomerPhone: strings.TrimSpace(req.Contact.Phone),
		CustomerEmail: strings.TrimSpace(req.Contact.Email),
		Address:       strings.TrimSpace(req.Contact.Address),
		Notes:         strings.TrimSpace(req.Contact.Notes),
		Lines:         req.Lines,
		Subtotal:      b.Subtotal,
		Discount:      b.Discount,
		Tax:           b.Tax,
		DeliveryFee:   b.DeliveryFee,
		Status:        StatusPlaced,
		Fulfillment:   req.Fulfillment,
		Payment:       req.Payment,
		ReferralCode:  code,
		AppliedCode:   req.AppliedCode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.Total = o.ComputedTotal()
	o.LoyaltyPoints = pricing.LoyaltyPoints(o.Total, req.Settings.Loyalty)
	if req.Zone != nil && req.Fulfillment == pricing.Delivery {
		o.ZoneName = req.Zone.Name
	}

	if err := s.orders.Save(ctx, o); err != nil {
		zctx.From(ctx).Error("Failed to save order", zap.String("order_id", o.ID), zap.Error(err))
		return nil, &PersistenceError{OrderID: o.ID, Err: err}
	}
	if req.Cart != nil {
		if err := req.Cart.Clear(ctx); err != nil {
			// The order exists; a stale cart is recoverable by the shopper.
			zctx.From(ctx).Warn("Failed to clear cart", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("fulfillment", string(o.Fulfillment)),
	)
	return o, nil
}

func validate(req PlaceRequest) error {
	switch {
	case strings.TrimSpace(req.Contact.Name) == "":
		return ErrNameRequired
	case customer.NormalizePhone(req.Contact.Phone) == "":
		return ErrPhoneRequired
	case len(req.Lines) == 0:
		return ErrEmptyCart
	case !req.Breakdown.MeetsMinimum:
		return ErrBelowMinimum
	case !req.Settings.Payments.Accepts(req.Payment):
		return errors.Wrapf(ErrPaymentUnavailable, "%q", req.Payment)
	}
	if req.Fulfillment == pricing.Delivery {
		if !req.Settings.Delivery.Enabled {
			return ErrDeliveryDisabled
		}
		if req.Settings.ZonesConfigured() && req.Zone == nil {
			return ErrZoneRequired
		}
	}
	return nil
}

// UpdateStatus moves an order to status to when the transition is allowed.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Transition(o.Status, to); err != nil {
		return nil, err
	}
	from := o.Status
	o.Status = to
	o.UpdatedAt = s.now().UTC()
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, &PersistenceError{OrderID: id, Err: err}
	}
	zctx.From(ctx).Info("Order status changed",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return o, nil
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	sortNewestFirst(orders)
	return orders, nil
}

// ListByPhone returns the orders whose customer phone normalizes to phone.
func (s *Service) ListByPhone(ctx context.Context, phone string) ([]Order, error) {
	want := customer.NormalizePhone(phone)
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0)
	for _, o := range all {
		if want != "" && customer.NormalizePhone(o.CustomerPhone) == want {
			out = append(out, o)
		}
	}
	return out, nil
}

func sortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
