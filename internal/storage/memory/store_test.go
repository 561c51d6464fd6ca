package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/session"
	"github.com/xenking/storefront/internal/domain/settings"
)

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(New())

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, repo.Save(ctx, &catalog.Product{ID: id, Name: id}))
	}
	require.NoError(t, repo.Save(ctx, &catalog.Product{ID: "a", Name: "renamed"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "renamed", list[1].Name)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestProductRepository_NoAliasing(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(New())

	p := &catalog.Product{ID: "p", Variants: []catalog.Variant{{Label: "1g", Price: decimal.NewFromInt(10)}}}
	require.NoError(t, repo.Save(ctx, p))
	p.Variants[0].Label = "mutated"

	got, err := repo.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "1g", got.Variants[0].Label)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(New())

	o := &order.Order{ID: "o1", Status: order.StatusPlaced, Total: decimal.NewFromInt(42), CreatedAt: time.Now()}
	require.NoError(t, repo.Save(ctx, o))
	require.NoError(t, repo.Save(ctx, &order.Order{ID: "o2", Status: order.StatusPlaced}))

	o.Status = order.StatusAccepted
	require.NoError(t, repo.Save(ctx, o))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o1", list[0].ID)
	assert.Equal(t, order.StatusAccepted, list[0].Status)
	assert.True(t, list[0].Total.Equal(decimal.NewFromInt(42)))

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestSettingsRepository_DefaultsWhenEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(New())

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Default().StoreName, got.StoreName)

	cfg := settings.Default()
	cfg.StoreName = "Corner Shop"
	cfg.TaxRate = decimal.RequireFromString("0.08")
	require.NoError(t, repo.Save(ctx, cfg))

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", got.StoreName)
	assert.True(t, got.TaxRate.Equal(cfg.TaxRate))
}

func TestCustomerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(New())

	_, err := repo.Get(ctx, "5551234567")
	assert.ErrorIs(t, err, customer.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &customer.Customer{ID: "5551234567", Name: "Ada"}))
	got, err := repo.Get(ctx, "5551234567")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(New())

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)

	st := session.New("s1")
	st.AppliedCode = "REF123ABC"
	require.NoError(t, store.Save(ctx, st))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "REF123ABC", got.AppliedCode)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
