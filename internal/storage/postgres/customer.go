package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/customer"
)

const (
	getCustomerSQL = `SELECT body FROM customers WHERE id = $1`

	upsertCustomerSQL = `INSERT INTO customers (id, body, joined_at) VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Get returns the customer with the normalized phone id.
func (r *CustomerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanDocument[customer.Customer])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	return &c, nil
}

// Save inserts or replaces c.
func (r *CustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling customer: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertCustomerSQL, c.ID, body, c.JoinedAt); err != nil {
		return fmt.Errorf("saving customer: %w", err)
	}
	return nil
}
