package referral

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/order"
)

const (
	indexCapacity = 100_000
	indexFPR      = 0.001
)

var _ order.Repository = (*Index)(nil)

// Index wraps an order repository and records every issued and redeemed
// code seen through Save in two bloom filters. A negative answer is exact;
// a positive answer must be confirmed against the history.
//
// The filters only observe writes made through this process. With several
// writers a negative answer may be stale; issued-code checks tolerate that,
// redemption checks must fall back to the history.
type Index struct {
	order.Repository

	mu       sync.RWMutex
	issued   *bloom.BloomFilter
	redeemed *bloom.BloomFilter
}

// NewIndex wraps repo. Call Warm before serving traffic.
func NewIndex(repo order.Repository) *Index {
	return &Index{
		Repository: repo,
		issued:     bloom.NewWithEstimates(indexCapacity, indexFPR),
		redeemed:   bloom.NewWithEstimates(indexCapacity, indexFPR),
	}
}

// Warm loads every stored order into the filters.
func (x *Index) Warm(ctx context.Context) error {
	orders, err := x.Repository.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list orders")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for i := range orders {
		x.observe(&orders[i])
	}
	return nil
}

// Save stores o and records its codes.
func (x *Index) Save(ctx context.Context, o *order.Order) error {
	if err := x.Repository.Save(ctx, o); err != nil {
		return err
	}
	x.mu.Lock()
	x.observe(o)
	x.mu.Unlock()
	return nil
}

// MaybeRedeemed is false only when no stored order applied code.
func (x *Index) MaybeRedeemed(code string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.redeemed.TestString(NormalizeCode(code))
}

// MaybeIssued is false only when no stored order issued code.
func (x *Index) MaybeIssued(code string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.issued.TestString(NormalizeCode(code))
}

func (x *Index) observe(o *order.Order) {
	if c := NormalizeCode(o.ReferralCode); c != "" {
		x.issued.AddString(c)
	}
	if c := NormalizeCode(o.AppliedCode); c != "" {
		x.redeemed.AddString(c)
	}
}
