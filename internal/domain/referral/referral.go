// Package referral validates and issues referral codes. Every completed
// order issues a code its customer can share; another customer may redeem
// it once for a percentage discount.
package referral

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/settings"
)

var (
	// ErrInvalidCode is returned when no order issued the code.
	ErrInvalidCode = errors.New("invalid code")
	// ErrSelfReferral is returned when the issuing customer applies their own code.
	ErrSelfReferral = errors.New("self-referral not allowed")
	// ErrAlreadyRedeemed is returned when a non-cancelled order already used the code.
	ErrAlreadyRedeemed = errors.New("code already redeemed")
	// ErrProgramDisabled is returned when the referral program is switched off.
	ErrProgramDisabled = errors.New("referral program is disabled")
)

// NormalizeCode trims and upper-cases a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// History is the order history codes are checked against.
type History interface {
	List(ctx context.Context) ([]order.Order, error)
}

// Validator checks a code against the full order history. The redemption
// check is a linear scan over all orders; Index only skips the scan when a
// code was provably never redeemed. That proof holds only while the index
// has seen every write, so pass an index only when this process is the sole
// writer of the history.
type Validator struct {
	history History
	index   *Index
}

// NewValidator creates a Validator. A nil index always scans.
func NewValidator(history History, index *Index) *Validator {
	return &Validator{history: history, index: index}
}

// Check returns the normalized code when it may be applied by the customer
// with phone. An empty phone never counts as self-referral.
func (v *Validator) Check(ctx context.Context, code, phone string, program settings.Referral) (string, error) {
	if !program.Enabled {
		return "", ErrProgramDisabled
	}
	code = NormalizeCode(code)
	if code == "" {
		return "", ErrInvalidCode
	}

	orders, err := v.history.List(ctx)
	if err != nil {
		return "", errors.Wrap(err, "list orders")
	}

	issuer, ok := findIssuer(orders, code)
	if !ok {
		return "", ErrInvalidCode
	}

	applicant := customer.NormalizePhone(phone)
	if applicant != "" && applicant == customer.NormalizePhone(issuer.CustomerPhone) {
		return "", ErrSelfReferral
	}

	if v.index != nil && !v.index.MaybeRedeemed(code) {
		return code, nil
	}
	if redeemed(orders, code) {
		return "", ErrAlreadyRedeemed
	}
	return code, nil
}

func findIssuer(orders []order.Order, code string) (order.Order, bool) {
	for _, o := range orders {
		if NormalizeCode(o.ReferralCode) == code {
			return o, true
		}
	}
	return order.Order{}, false
}

func redeemed(orders []order.Order, code string) bool {
	for _, o := range orders {
		if o.Status != order.StatusCancelled && NormalizeCode(o.AppliedCode) == code {
			return true
		}
	}
	return false
}
