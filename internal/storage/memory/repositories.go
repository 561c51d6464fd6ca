package memory

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/session"
	"github.com/xenking/storefront/internal/domain/settings"
)

const (
	productPrefix  = "product:"
	orderPrefix    = "order:"
	customerPrefix = "customer:"
	sessionPrefix  = "session:"
	settingsKey    = "settings"
)

var (
	_ catalog.Repository  = (*ProductRepository)(nil)
	_ order.Repository    = (*OrderRepository)(nil)
	_ settings.Repository = (*SettingsRepository)(nil)
	_ customer.Repository = (*CustomerRepository)(nil)
	_ session.Store       = (*SessionStore)(nil)
)

// ProductRepository implements catalog.Repository on a Store.
type ProductRepository struct{ s *Store }

// NewProductRepository returns a ProductRepository over s.
func NewProductRepository(s *Store) *ProductRepository { return &ProductRepository{s: s} }

// List returns all products in insertion order.
func (r *ProductRepository) List(_ context.Context) ([]catalog.Product, error) {
	return scanJSON[catalog.Product](r.s, productPrefix)
}

// Get returns the product with id.
func (r *ProductRepository) Get(_ context.Context, id string) (*catalog.Product, error) {
	var p catalog.Product
	if err := getJSON(r.s, productPrefix+id, &p); err != nil {
		if errors.Is(err, errMissing) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Save inserts or replaces p.
func (r *ProductRepository) Save(_ context.Context, p *catalog.Product) error {
	return putJSON(r.s, productPrefix+p.ID, p)
}

// OrderRepository implements order.Repository on a Store.
type OrderRepository struct{ s *Store }

// NewOrderRepository returns an OrderRepository over s.
func NewOrderRepository(s *Store) *OrderRepository { return &OrderRepository{s: s} }

// List returns all orders in insertion order.
func (r *OrderRepository) List(_ context.Context) ([]order.Order, error) {
	return scanJSON[order.Order](r.s, orderPrefix)
}

// Get returns the order with id.
func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := getJSON(r.s, orderPrefix+id, &o); err != nil {
		if errors.Is(err, errMissing) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Save inserts or replaces o, keeping its original position.
func (r *OrderRepository) Save(_ context.Context, o *order.Order) error {
	return putJSON(r.s, orderPrefix+o.ID, o)
}

// SettingsRepository implements settings.Repository on a Store.
type SettingsRepository struct{ s *Store }

// NewSettingsRepository returns a SettingsRepository over s.
func NewSettingsRepository(s *Store) *SettingsRepository { return &SettingsRepository{s: s} }

// Get returns the saved settings, or settings.Default when none were saved.
func (r *SettingsRepository) Get(_ context.Context) (settings.Settings, error) {
	var cfg settings.Settings
	if err := getJSON(r.s, settingsKey, &cfg); err != nil {
		if errors.Is(err, errMissing) {
			return settings.Default(), nil
		}
		return settings.Settings{}, err
	}
	return cfg, nil
}

// Save replaces the settings.
func (r *SettingsRepository) Save(_ context.Context, cfg settings.Settings) error {
	return putJSON(r.s, settingsKey, cfg)
}

// CustomerRepository implements customer.Repository on a Store.
type CustomerRepository struct{ s *Store }

// NewCustomerRepository returns a CustomerRepository over s.
func NewCustomerRepository(s *Store) *CustomerRepository { return &CustomerRepository{s: s} }

// Get returns the customer with normalized phone id.
func (r *CustomerRepository) Get(_ context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	if err := getJSON(r.s, customerPrefix+id, &c); err != nil {
		if errors.Is(err, errMissing) {
			return nil, customer.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Save inserts or replaces c.
func (r *CustomerRepository) Save(_ context.Context, c *customer.Customer) error {
	return putJSON(r.s, customerPrefix+c.ID, c)
}

// SessionStore implements session.Store on a Store.
type SessionStore struct{ s *Store }

// NewSessionStore returns a SessionStore over s.
func NewSessionStore(s *Store) *SessionStore { return &SessionStore{s: s} }

// Load returns the state saved for id.
func (r *SessionStore) Load(_ context.Context, id string) (*session.State, error) {
	data, err := r.s.get(sessionPrefix + id)
	if err != nil {
		if errors.Is(err, errMissing) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	return session.Decode(data)
}

// Save replaces the state of st.ID.
func (r *SessionStore) Save(_ context.Context, st *session.State) error {
	r.s.put(sessionPrefix+st.ID, session.Encode(st))
	return nil
}

// Delete removes the state of id.
func (r *SessionStore) Delete(_ context.Context, id string) error {
	r.s.del(sessionPrefix + id)
	return nil
}
