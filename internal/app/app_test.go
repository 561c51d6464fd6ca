package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/referral"
	"github.com/xenking/storefront/internal/domain/settings"
	"github.com/xenking/storefront/internal/storage/memory"
)

func TestRedemptionIndex(t *testing.T) {
	index := referral.NewIndex(memory.NewOrderRepository(memory.New()))

	assert.Same(t, index, redemptionIndex(&Config{Storage: StorageMemory}, index))
	assert.Nil(t, redemptionIndex(&Config{Storage: StoragePostgres}, index))
}

func TestRedemptionIndex_SharedHistory(t *testing.T) {
	// Two replicas over one order table: a code redeemed through one must be
	// rejected by the other even though its filters never saw the write.
	ctx := context.Background()
	shared := memory.NewOrderRepository(memory.New())
	require.NoError(t, shared.Save(ctx, &order.Order{
		ID: "o1", CustomerPhone: "5551234567", ReferralCode: "REFBBBBBB", Status: order.StatusPlaced,
	}))

	a := referral.NewIndex(shared)
	b := referral.NewIndex(shared)
	require.NoError(t, a.Warm(ctx))
	require.NoError(t, b.Warm(ctx))

	cfg := &Config{Storage: StoragePostgres}
	v := referral.NewValidator(b, redemptionIndex(cfg, b))
	program := settings.Referral{Enabled: true}

	_, err := v.Check(ctx, "REFBBBBBB", "5559990000", program)
	require.NoError(t, err)

	require.NoError(t, a.Save(ctx, &order.Order{
		ID: "o2", CustomerPhone: "5559990000", ReferralCode: "REFCCCCCC", AppliedCode: "REFBBBBBB", Status: order.StatusPlaced,
	}))
	assert.False(t, b.MaybeRedeemed("REFBBBBBB"))

	_, err = v.Check(ctx, "REFBBBBBB", "5558887777", program)
	require.ErrorIs(t, err, referral.ErrAlreadyRedeemed)
}
