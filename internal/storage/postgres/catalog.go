package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT body FROM products ORDER BY position`

	getProductSQL = `SELECT body FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (id, category, published, body)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE
	SET category = EXCLUDED.category, published = EXCLUDED.published,
	    body = EXCLUDED.body, updated_at = now()`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products in the order they were first saved.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanDocument[catalog.Product])
}

// Get returns a single product by its identifier.
func (r *ProductRepository) Get(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanDocument[catalog.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Save inserts or replaces p.
func (r *ProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling product %q: %w", p.ID, err)
	}
	if _, err := r.pool.Exec(ctx, upsertProductSQL, p.ID, p.Category, p.Published, body); err != nil {
		return fmt.Errorf("saving product %q: %w", p.ID, err)
	}
	return nil
}

// scanDocument decodes a single JSONB body column into T.
func scanDocument[T any](row pgx.CollectableRow) (T, error) {
	var (
		v    T
		body []byte
	)
	if err := row.Scan(&body); err != nil {
		return v, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decoding document: %w", err)
	}
	return v, nil
}
