package referral

import (
	"context"

	"github.com/xenking/storefront/internal/domain/settings"
)

// Slot holds at most one applied code per checkout. It only moves between
// empty and applied; a rejected Apply leaves the current value untouched.
type Slot struct {
	code string
}

// NewSlot restores a slot from a persisted code ("" for empty).
func NewSlot(code string) Slot {
	return Slot{code: code}
}

// Code returns the applied code, or "".
func (s Slot) Code() string { return s.code }

// Applied reports whether a code is held.
func (s Slot) Applied() bool { return s.code != "" }

// Apply validates code and stores it on success.
func (s *Slot) Apply(ctx context.Context, v *Validator, code, phone string, program settings.Referral) error {
	normalized, err := v.Check(ctx, code, phone, program)
	if err != nil {
		return err
	}
	s.code = normalized
	return nil
}

// Remove empties the slot.
func (s *Slot) Remove() {
	s.code = ""
}
