// Package checkout drives one shopper's session from cart to placed order.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/referral"
	"github.com/xenking/storefront/internal/domain/session"
	"github.com/xenking/storefront/internal/domain/settings"
)

var (
	// ErrNotPublished is returned when adding an unpublished product.
	ErrNotPublished = errors.New("product is not available for purchase")
	// ErrOutOfStock is returned when adding a variant with no stock.
	ErrOutOfStock = errors.New("variant is out of stock")
	// ErrNotDelivery is returned when resolving a zone outside delivery mode.
	ErrNotDelivery = errors.New("fulfillment type is not delivery")
	// ErrPhoneRequired is returned when applying a code before a phone is set.
	ErrPhoneRequired = errors.New("enter a phone number before applying a code")
)

// InsufficientStockError reports an add that would exceed variant stock.
type InsufficientStockError struct {
	ProductID string
	Variant   string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d of %s (%s) available", e.Available, e.ProductID, e.Variant)
}

// Quote is the priced view of a session.
type Quote struct {
	Lines       []cart.Line
	Breakdown   pricing.Breakdown
	Fulfillment pricing.Fulfillment
	Payment     settings.PaymentMethod
	AppliedCode string
	Zone        *delivery.Zone
	// Blockers lists reasons the order cannot be placed yet.
	Blockers []error
}

// Ready reports whether nothing blocks placing the order.
func (q *Quote) Ready() bool { return len(q.Blockers) == 0 }

// Service implements the checkout operations over stored sessions.
type Service struct {
	sessions  session.Store
	products  catalog.Repository
	settings  settings.Repository
	orders    *order.Service
	referrals *referral.Validator
	resolver  *delivery.Resolver
	locks     *keyedMutex
	now       func() time.Time
}

// Deps are the collaborators of Service.
type Deps struct {
	Sessions  session.Store
	Products  catalog.Repository
	Settings  settings.Repository
	Orders    *order.Service
	Referrals *referral.Validator
	Resolver  *delivery.Resolver
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	return &Service{
		sessions:  d.Sessions,
		products:  d.Products,
		settings:  d.Settings,
		orders:    d.Orders,
		referrals: d.Referrals,
		resolver:  d.Resolver,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// Products returns the published catalog. Storefronts call it to refresh
// listings; carts keep the prices captured when lines were added.
func (s *Service) Products(ctx context.Context) ([]catalog.Product, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return catalog.Published(all), nil
}

// Session returns the current state of sid, creating it when missing.
func (s *Service) Session(ctx context.Context, sid string) (*session.State, error) {
	var out *session.State
	err := s.with(ctx, sid, func(st *session.State) error {
		out = st
		return nil
	})
	return out, err
}

// AddItem adds quantity of a product variant to the cart after checking it
// is published and in stock.
func (s *Service) AddItem(ctx context.Context, sid, productID string, variantIndex, quantity int) ([]cart.Line, error) {
	var lines []cart.Line
	err := s.with(ctx, sid, func(st *session.State) error {
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			return err
		}
		if !p.Published {
			return ErrNotPublished
		}
		v, ok := p.Variant(variantIndex)
		if !ok {
			return &cart.VariantNotFoundError{ProductID: productID, Index: variantIndex}
		}
		if !v.Purchasable() {
			return ErrOutOfStock
		}

		c := s.cartFor(st)
		held := c.Quantity(cart.Key{ProductID: p.ID, VariantLabel: v.Label})
		if quantity > 0 && held+quantity > v.Stock {
			return &InsufficientStockError{ProductID: p.ID, Variant: v.Label, Available: v.Stock - held}
		}
		if err := c.Add(ctx, *p, variantIndex, quantity); err != nil {
			return err
		}
		lines = c.Lines()
		return nil
	})
	return lines, err
}

// RemoveItem drops a product variant from the cart.
func (s *Service) RemoveItem(ctx context.Context, sid, productID, variantLabel string) ([]cart.Line, error) {
	var lines []cart.Line
	err := s.with(ctx, sid, func(st *session.State) error {
		c := s.cartFor(st)
		if err := c.Remove(ctx, productID, variantLabel); err != nil {
			return err
		}
		lines = c.Lines()
		return nil
	})
	return lines, err
}

// ClearCart empties the cart.
func (s *Service) ClearCart(ctx context.Context, sid string) error {
	return s.with(ctx, sid, func(st *session.State) error {
		return s.cartFor(st).Clear(ctx)
	})
}

// SetContact stores the draft contact details.
func (s *Service) SetContact(ctx context.Context, sid string, c order.Contact) error {
	return s.with(ctx, sid, func(st *session.State) error {
		st.Contact = c
		return s.save(ctx, st)
	})
}

// SetFulfillment selects pickup or delivery and the payment method.
// Leaving delivery discards any resolved zone.
func (s *Service) SetFulfillment(ctx context.Context, sid string, f pricing.Fulfillment, pay settings.PaymentMethod) error {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "get settings")
	}
	if f == pricing.Delivery && !cfg.Delivery.Enabled {
		return order.ErrDeliveryDisabled
	}
	if !cfg.Payments.Accepts(pay) {
		return errors.Wrapf(order.ErrPaymentUnavailable, "%q", pay)
	}
	return s.with(ctx, sid, func(st *session.State) error {
		if f != pricing.Delivery {
			st.Zone = nil
		}
		st.Fulfillment = f
		st.Payment = pay
		return s.save(ctx, st)
	})
}

// ResolveZone locates the shopper and stores the cheapest covering zone.
// A failed attempt leaves the session unresolved.
func (s *Service) ResolveZone(ctx context.Context, sid string, loc delivery.Locator) (*delivery.Resolution, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get settings")
	}
	var res *delivery.Resolution
	err = s.with(ctx, sid, func(st *session.State) error {
		if st.Fulfillment != pricing.Delivery {
			return ErrNotDelivery
		}
		r, resolveErr := s.resolver.Resolve(ctx, loc, cfg.Delivery.Zones, cart.Subtotal(st.Lines))
		if resolveErr != nil {
			st.Zone = nil
			if err := s.save(ctx, st); err != nil {
				return err
			}
			return resolveErr
		}
		zone := r.Zone
		st.Zone = &zone
		res = r
		return s.save(ctx, st)
	})
	return res, err
}

// ApplyPromotion validates code for the session's phone and applies it.
// A rejected code leaves any previously applied code in place.
func (s *Service) ApplyPromotion(ctx context.Context, sid, code string) (string, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return "", errors.Wrap(err, "get settings")
	}
	var applied string
	err = s.with(ctx, sid, func(st *session.State) error {
		if customer.NormalizePhone(st.Contact.Phone) == "" {
			return ErrPhoneRequired
		}
		slot := referral.NewSlot(st.AppliedCode)
		if err := slot.Apply(ctx, s.referrals, code, st.Contact.Phone, cfg.Referral); err != nil {
			return err
		}
		st.AppliedCode = slot.Code()
		applied = st.AppliedCode
		return s.save(ctx, st)
	})
	return applied, err
}

// RemovePromotion clears the applied code.
func (s *Service) RemovePromotion(ctx context.Context, sid string) error {
	return s.with(ctx, sid, func(st *session.State) error {
		slot := referral.NewSlot(st.AppliedCode)
		slot.Remove()
		st.AppliedCode = slot.Code()
		return s.save(ctx, st)
	})
}

// Quote prices the session and lists what still blocks checkout.
func (s *Service) Quote(ctx context.Context, sid string) (*Quote, error) {
	var (
		st  *session.State
		cfg settings.Settings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		st, err = s.Session(gctx, sid)
		return err
	})
	g.Go(func() error {
		var err error
		if cfg, err = s.settings.Get(gctx); err != nil {
			return errors.Wrap(err, "get settings")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quote(st, cfg), nil
}

func quote(st *session.State, cfg settings.Settings) *Quote {
	zone := zoneFor(st, cfg.Delivery.Zones)
	b := pricing.Compute(pricing.Input{
		Lines:       st.Lines,
		Settings:    cfg,
		Fulfillment: st.Fulfillment,
		Zone:        zone,
		Promotion:   st.AppliedCode != "",
	})
	q := &Quote{
		Lines:       st.Lines,
		Breakdown:   b,
		Fulfillment: st.Fulfillment,
		Payment:     st.Payment,
		AppliedCode: st.AppliedCode,
		Zone:        zone,
	}
	if len(st.Lines) == 0 {
		q.Blockers = append(q.Blockers, order.ErrEmptyCart)
	}
	if !b.MeetsMinimum {
		q.Blockers = append(q.Blockers, order.ErrBelowMinimum)
	}
	if b.DeliveryBlocked {
		q.Blockers = append(q.Blockers, order.ErrZoneRequired)
	}
	return q
}

// PlaceOrder finalizes the session into an order. A resolved zone that is
// no longer active is dropped and the applied code is re-checked against the
// final phone; on success the cart and code are cleared.
func (s *Service) PlaceOrder(ctx context.Context, sid string) (*order.Order, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get settings")
	}
	var placed *order.Order
	err = s.with(ctx, sid, func(st *session.State) error {
		if st.Zone != nil && zoneFor(st, cfg.Delivery.Zones) == nil {
			st.Zone = nil
			if err := s.save(ctx, st); err != nil {
				return err
			}
		}
		if st.AppliedCode != "" {
			if _, err := s.referrals.Check(ctx, st.AppliedCode, st.Contact.Phone, cfg.Referral); err != nil {
				return err
			}
		}
		q := quote(st, cfg)
		o, err := s.orders.Place(ctx, order.PlaceRequest{
			Lines:       st.Lines,
			Contact:     st.Contact,
			Fulfillment: st.Fulfillment,
			Payment:     st.Payment,
			Breakdown:   q.Breakdown,
			Settings:    cfg,
			Zone:        q.Zone,
			AppliedCode: st.AppliedCode,
			Cart:        s.cartFor(st),
		})
		if err != nil {
			return err
		}
		placed = o
		st.AppliedCode = ""
		if err := s.save(ctx, st); err != nil {
			zctx.From(ctx).Warn("Failed to reset promotion after order", zap.String("order_id", o.ID), zap.Error(err))
		}
		return nil
	})
	return placed, err
}

// BindCustomer records the logged-in customer and pre-fills empty contact
// fields from the account.
func (s *Service) BindCustomer(ctx context.Context, sid string, c *customer.Customer) error {
	return s.with(ctx, sid, func(st *session.State) error {
		st.CustomerID = c.ID
		if st.Contact.Name == "" {
			st.Contact.Name = c.Name
		}
		if st.Contact.Phone == "" {
			st.Contact.Phone = c.Phone
		}
		if st.Contact.Email == "" {
			st.Contact.Email = c.Email
		}
		return s.save(ctx, st)
	})
}

// Logout forgets the session's customer identity.
func (s *Service) Logout(ctx context.Context, sid string) error {
	return s.with(ctx, sid, func(st *session.State) error {
		st.CustomerID = ""
		return s.save(ctx, st)
	})
}

// with runs fn on the loaded state of sid while holding the session lock.
func (s *Service) with(ctx context.Context, sid string, fn func(st *session.State) error) error {
	unlock := s.locks.Lock(sid)
	defer unlock()

	st, err := s.sessions.Load(ctx, sid)
	if errors.Is(err, session.ErrNotFound) {
		st, err = session.New(sid), nil
	}
	if err != nil {
		return errors.Wrap(err, "load session")
	}
	return fn(st)
}

// cartFor binds a cart to st so every mutation writes the session through.
func (s *Service) cartFor(st *session.State) *cart.Cart {
	return cart.New(st.Lines, cart.PersisterFunc(func(ctx context.Context, lines []cart.Line) error {
		prev := st.Lines
		st.Lines = lines
		if err := s.save(ctx, st); err != nil {
			st.Lines = prev
			return err
		}
		return nil
	}))
}

func (s *Service) save(ctx context.Context, st *session.State) error {
	st.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, st); err != nil {
		return errors.Wrap(err, "save session")
	}
	return nil
}

// zoneFor returns the current version of the session's resolved zone. A
// zone staff deactivated or removed since resolution no longer counts.
func zoneFor(st *session.State, zones []delivery.Zone) *delivery.Zone {
	if st.Fulfillment != pricing.Delivery || st.Zone == nil {
		return nil
	}
	for _, z := range zones {
		if z.Name == st.Zone.Name && z.Active {
			return &z
		}
	}
	return nil
}
