// Package settings holds the store-wide configuration staff edit from the
// back office. Consumers receive a snapshot per call; only the settings
// endpoint writes it back.
package settings

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/delivery"
)

// ErrInvalid wraps every validation failure of Settings.
var ErrInvalid = errors.New("invalid settings")

// PaymentMethod is how a customer pays for an order.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

// Payments toggles the accepted payment methods.
type Payments struct {
	Cash   bool `json:"cash"`
	Card   bool `json:"card"`
	Online bool `json:"online"`
}

// Accepts reports whether m is enabled.
func (p Payments) Accepts(m PaymentMethod) bool {
	switch m {
	case PaymentCash:
		return p.Cash
	case PaymentCard:
		return p.Card
	case PaymentOnline:
		return p.Online
	default:
		return false
	}
}

// Referral configures the referral discount program.
type Referral struct {
	Enabled    bool            `json:"enabled"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Loyalty configures points earned per dollar spent.
type Loyalty struct {
	Enabled         bool            `json:"enabled"`
	PointsPerDollar decimal.Decimal `json:"pointsPerDollar"`
}

// Delivery configures delivery availability and its zones.
type Delivery struct {
	Enabled bool            `json:"enabled"`
	Zones   []delivery.Zone `json:"zones"`
}

// Settings is the full store configuration.
type Settings struct {
	StoreName       string          `json:"storeName"`
	Payments        Payments        `json:"payments"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	MinimumOrder    decimal.Decimal `json:"minimumOrder"`
	Referral        Referral        `json:"referral"`
	Loyalty         Loyalty         `json:"loyalty"`
	Delivery        Delivery        `json:"delivery"`
	MessageTemplate string          `json:"messageTemplate"`
}

// Default returns the configuration used before staff save their own.
func Default() Settings {
	return Settings{
		StoreName:    "Storefront",
		Payments:     Payments{Cash: true, Card: true},
		TaxRate:      decimal.Zero,
		DeliveryFee:  decimal.NewFromInt(5),
		MinimumOrder: decimal.Zero,
		Referral: Referral{
			Enabled:    true,
			Percentage: decimal.NewFromInt(10),
		},
		Loyalty: Loyalty{
			Enabled:         false,
			PointsPerDollar: decimal.NewFromInt(1),
		},
		Delivery:        Delivery{Enabled: true},
		MessageTemplate: "Hi {name}, your order {order} for ${total} is {status}. Share code {code} with a friend!",
	}
}

// ZonesConfigured reports whether any delivery zone exists, active or not.
func (s Settings) ZonesConfigured() bool {
	return len(s.Delivery.Zones) > 0
}

// Validate rejects negative rates, fees and zone parameters.
func (s Settings) Validate() error {
	nonNegative := []struct {
		name  string
		value decimal.Decimal
	}{
		{"tax rate", s.TaxRate},
		{"delivery fee", s.DeliveryFee},
		{"minimum order", s.MinimumOrder},
		{"referral percentage", s.Referral.Percentage},
		{"loyalty points per dollar", s.Loyalty.PointsPerDollar},
	}
	for _, f := range nonNegative {
		if f.value.IsNegative() {
			return errors.Wrapf(ErrInvalid, "%s must not be negative", f.name)
		}
	}
	if s.Referral.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return errors.Wrap(ErrInvalid, "referral percentage must not exceed 100")
	}
	for _, z := range s.Delivery.Zones {
		if err := z.Validate(); err != nil {
			return errors.Wrap(ErrInvalid, err.Error())
		}
	}
	return nil
}

// MessageFields are the values substituted into the message template.
type MessageFields struct {
	Name    string
	OrderID string
	Total   decimal.Decimal
	Status  string
	Code    string
}

// RenderMessage fills {name}, {order}, {total}, {status}, {code} and {store}
// placeholders. Unknown placeholders are left as-is.
func (s Settings) RenderMessage(f MessageFields) string {
	r := strings.NewReplacer(
		"{name}", f.Name,
		"{order}", f.OrderID,
		"{total}", f.Total.StringFixed(2),
		"{status}", f.Status,
		"{code}", f.Code,
		"{store}", s.StoreName,
	)
	return r.Replace(s.MessageTemplate)
}

// Repository persists the single settings record.
type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}
