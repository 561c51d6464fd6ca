// Package pricing computes the monetary breakdown of a checkout.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/delivery"
	"github.com/xenking/storefront/internal/domain/settings"
)

var hundred = decimal.NewFromInt(100)

// ErrUnknownFulfillment is returned by ParseFulfillment.
var ErrUnknownFulfillment = errors.New("unknown fulfillment type")

// Fulfillment is how an order reaches the customer.
type Fulfillment string

const (
	Pickup   Fulfillment = "pickup"
	Delivery Fulfillment = "delivery"
)

// ParseFulfillment validates a fulfillment name.
func ParseFulfillment(s string) (Fulfillment, error) {
	switch f := Fulfillment(s); f {
	case Pickup, Delivery:
		return f, nil
	default:
		return "", errors.Wrapf(ErrUnknownFulfillment, "%q", s)
	}
}

// Input is everything the breakdown depends on. Lines are the cart snapshot;
// prices are never re-read from the live catalog.
type Input struct {
	Lines       []cart.Line
	Settings    settings.Settings
	Fulfillment Fulfillment
	// Zone is the resolved delivery zone, nil when unresolved.
	Zone *delivery.Zone
	// Promotion is true when a referral code is applied.
	Promotion bool
}

// Breakdown is the computed price of a checkout at full precision.
type Breakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Taxable     decimal.Decimal `json:"taxable"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`

	// DeliveryBlocked is set for Delivery when zones are configured but none
	// was resolved. The fee is zero and checkout must not proceed.
	DeliveryBlocked bool `json:"deliveryBlocked"`
	// MeetsMinimum is subtotal ≥ the store minimum order.
	MeetsMinimum bool `json:"meetsMinimum"`
}

// Compute derives the breakdown:
//
//	subtotal = Σ price × qty
//	discount = subtotal × referral% / 100 (when a promotion is applied)
//	taxable  = subtotal − discount
//	tax      = taxable × taxRate / 100
//	total    = taxable + tax + deliveryFee
func Compute(in Input) Breakdown {
	s := in.Settings
	subtotal := cart.Subtotal(in.Lines)

	discount := decimal.Zero
	if in.Promotion {
		discount = subtotal.Mul(s.Referral.Percentage).Div(hundred)
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(s.TaxRate).Div(hundred)

	fee, blocked := deliveryFee(in)

	return Breakdown{
		Subtotal:        subtotal,
		Discount:        discount,
		Taxable:         taxable,
		Tax:             tax,
		DeliveryFee:     fee,
		Total:           taxable.Add(tax).Add(fee),
		DeliveryBlocked: blocked,
		MeetsMinimum:    subtotal.GreaterThanOrEqual(s.MinimumOrder),
	}
}

func deliveryFee(in Input) (fee decimal.Decimal, blocked bool) {
	if in.Fulfillment != Delivery {
		return decimal.Zero, false
	}
	if in.Zone != nil {
		return in.Zone.Fee, false
	}
	if !in.Settings.ZonesConfigured() {
		return in.Settings.DeliveryFee, false
	}
	return decimal.Zero, true
}

// Rounded returns a copy with every amount rounded to cents for display.
func (b Breakdown) Rounded() Breakdown {
	b.Subtotal = b.Subtotal.Round(2)
	b.Discount = b.Discount.Round(2)
	b.Taxable = b.Taxable.Round(2)
	b.Tax = b.Tax.Round(2)
	b.DeliveryFee = b.DeliveryFee.Round(2)
	b.Total = b.Total.Round(2)
	return b
}

// LoyaltyPoints returns whole points earned for total, or 0 when the
// program is disabled.
func LoyaltyPoints(total decimal.Decimal, l settings.Loyalty) int64 {
	if !l.Enabled || total.IsNegative() {
		return 0
	}
	return total.Mul(l.PointsPerDollar).Floor().IntPart()
}
