package referral

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/settings"
)

type orderRepo struct {
	orders  []order.Order
	listErr error
	lists   int
}

func (r *orderRepo) List(context.Context) ([]order.Order, error) {
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]order.Order(nil), r.orders...), nil
}

func (r *orderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	for i := range r.orders {
		if r.orders[i].ID == id {
			o := r.orders[i]
			return &o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (r *orderRepo) Save(_ context.Context, o *order.Order) error {
	for i := range r.orders {
		if r.orders[i].ID == o.ID {
			r.orders[i] = *o
			return nil
		}
	}
	r.orders = append(r.orders, *o)
	return nil
}

var program = settings.Referral{Enabled: true}

func history() *orderRepo {
	return &orderRepo{orders: []order.Order{
		{ID: "o1", CustomerPhone: "(555) 123-4567", ReferralCode: "REFAAAAAA", Status: order.StatusPlaced},
		{ID: "o2", CustomerPhone: "555 987 6543", ReferralCode: "REFBBBBBB", AppliedCode: "REFAAAAAA", Status: order.StatusPlaced},
		{ID: "o3", CustomerPhone: "555 000 1111", ReferralCode: "REFCCCCCC", Status: order.StatusPickedUp},
		{ID: "o4", CustomerPhone: "555 222 3333", ReferralCode: "REFDDDDDD", AppliedCode: "REFCCCCCC", Status: order.StatusCancelled},
	}}
}

func TestValidator_Check(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		phone   string
		want    string
		wantErr error
	}{
		{name: "valid", code: "REFBBBBBB", phone: "5551112222", want: "REFBBBBBB"},
		{name: "normalized", code: "  refbbbbbb ", phone: "5551112222", want: "REFBBBBBB"},
		{name: "unknown", code: "REFZZZZZZ", phone: "5551112222", wantErr: ErrInvalidCode},
		{name: "empty", code: "   ", phone: "5551112222", wantErr: ErrInvalidCode},
		{name: "self referral", code: "REFBBBBBB", phone: "(555) 987-6543", wantErr: ErrSelfReferral},
		{name: "already redeemed", code: "REFAAAAAA", phone: "5551112222", wantErr: ErrAlreadyRedeemed},
		{name: "redeemed by cancelled order only", code: "refcccccc", phone: "5551112222", want: "REFCCCCCC"},
		{name: "empty phone is not self referral", code: "REFBBBBBB", phone: "", want: "REFBBBBBB"},
	}

	for _, withIndex := range []bool{false, true} {
		for _, tt := range tests {
			name := tt.name
			if withIndex {
				name += " indexed"
			}
			t.Run(name, func(t *testing.T) {
				ctx := context.Background()
				repo := history()
				var idx *Index
				if withIndex {
					idx = NewIndex(repo)
					require.NoError(t, idx.Warm(ctx))
				}
				got, err := NewValidator(repo, idx).Check(ctx, tt.code, tt.phone, program)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
					assert.Empty(t, got)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestValidator_SelfReferralBeforeRedeemed(t *testing.T) {
	// The issuer of a redeemed code gets the self-referral error.
	_, err := NewValidator(history(), nil).Check(context.Background(), "REFAAAAAA", "555-123-4567", program)
	require.ErrorIs(t, err, ErrSelfReferral)
}

func TestValidator_ProgramDisabled(t *testing.T) {
	repo := history()
	_, err := NewValidator(repo, nil).Check(context.Background(), "REFBBBBBB", "5551112222", settings.Referral{})
	require.ErrorIs(t, err, ErrProgramDisabled)
	assert.Zero(t, repo.lists)
}

func TestValidator_HistoryError(t *testing.T) {
	repo := &orderRepo{listErr: errors.New("timeout")}
	_, err := NewValidator(repo, nil).Check(context.Background(), "REFBBBBBB", "5551112222", program)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCode)
}

func TestIndex_TracksWrites(t *testing.T) {
	ctx := context.Background()
	repo := history()
	idx := NewIndex(repo)
	require.NoError(t, idx.Warm(ctx))

	assert.True(t, idx.MaybeIssued("refaaaaaa"))
	assert.True(t, idx.MaybeRedeemed("REFAAAAAA"))
	assert.False(t, idx.MaybeRedeemed("REFBBBBBB"))

	v := NewValidator(idx, idx)
	_, err := v.Check(ctx, "REFBBBBBB", "5551112222", program)
	require.NoError(t, err)

	require.NoError(t, idx.Save(ctx, &order.Order{
		ID:            "o5",
		CustomerPhone: "5551112222",
		ReferralCode:  "REFEEEEEE",
		AppliedCode:   "REFBBBBBB",
		Status:        order.StatusPlaced,
	}))
	assert.True(t, idx.MaybeIssued("REFEEEEEE"))
	assert.True(t, idx.MaybeRedeemed("REFBBBBBB"))

	_, err = v.Check(ctx, "REFBBBBBB", "5553334444", program)
	require.ErrorIs(t, err, ErrAlreadyRedeemed)

	// Cancelling the redeeming order frees the code again.
	o, err := idx.Get(ctx, "o5")
	require.NoError(t, err)
	o.Status = order.StatusCancelled
	require.NoError(t, idx.Save(ctx, o))
	_, err = v.Check(ctx, "REFBBBBBB", "5553334444", program)
	require.NoError(t, err)
}

func TestGenerator_Next(t *testing.T) {
	ctx := context.Background()
	g := NewGenerator(nil)
	for range 100 {
		code, err := g.Next(ctx)
		require.NoError(t, err)
		assert.Regexp(t, `^REF[0-9A-F]{6}$`, code)
	}
}

func TestGenerator_AvoidsIssuedCodes(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex(history())
	require.NoError(t, idx.Warm(ctx))

	draws := []string{"REFAAAAAA", "REFBBBBBB", "REF123456"}
	g := NewGenerator(idx)
	g.draw = func() string {
		code := draws[0]
		draws = draws[1:]
		return code
	}

	code, err := g.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "REF123456", code)

	g.draw = func() string { return "REFAAAAAA" }
	_, err = g.Next(ctx)
	require.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestSlot(t *testing.T) {
	ctx := context.Background()
	v := NewValidator(history(), nil)

	var s Slot
	assert.False(t, s.Applied())

	require.NoError(t, s.Apply(ctx, v, " refbbbbbb", "5551112222", program))
	assert.True(t, s.Applied())
	assert.Equal(t, "REFBBBBBB", s.Code())

	require.ErrorIs(t, s.Apply(ctx, v, "REFZZZZZZ", "5551112222", program), ErrInvalidCode)
	assert.Equal(t, "REFBBBBBB", s.Code())
	require.ErrorIs(t, s.Apply(ctx, v, "REFAAAAAA", "5551112222", program), ErrAlreadyRedeemed)
	assert.Equal(t, "REFBBBBBB", s.Code())

	require.NoError(t, s.Apply(ctx, v, "REFCCCCCC", "5551112222", program))
	assert.Equal(t, "REFCCCCCC", s.Code())

	s.Remove()
	assert.False(t, s.Applied())
	assert.Equal(t, NewSlot(""), s)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "REF12AB", NormalizeCode("\t ref12ab \n"))
	assert.Equal(t, "", NormalizeCode("   "))
}
