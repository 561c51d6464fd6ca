package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/settings"
)

const (
	getSettingsSQL = `SELECT body FROM settings WHERE id = 1`

	upsertSettingsSQL = `INSERT INTO settings (id, body) VALUES (1, $1)
	ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body`
)

var _ settings.Repository = (*SettingsRepository)(nil)

// SettingsRepository implements settings.Repository as a single-row table.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository returns a SettingsRepository that uses the given pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get returns the stored settings, or settings.Default when none were saved.
func (r *SettingsRepository) Get(ctx context.Context) (settings.Settings, error) {
	rows, err := r.pool.Query(ctx, getSettingsSQL)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("getting settings: %w", err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanDocument[settings.Settings])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return settings.Default(), nil
		}
		return settings.Settings{}, fmt.Errorf("getting settings: %w", err)
	}
	return s, nil
}

// Save replaces the stored settings.
func (r *SettingsRepository) Save(ctx context.Context, s settings.Settings) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertSettingsSQL, body); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
