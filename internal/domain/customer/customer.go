// Package customer manages phone-number accounts with a short PIN.
package customer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

const (
	minPhoneDigits = 10
	minPINLength   = 4
	maxPINLength   = 6
)

var (
	// ErrNotFound is returned when no customer has the given phone.
	ErrNotFound = errors.New("customer not found")
	// ErrNameRequired is returned when registering without a name.
	ErrNameRequired = errors.New("name is required")
	// ErrPhoneTooShort is returned when a phone has fewer than 10 digits.
	ErrPhoneTooShort = errors.New("phone number too short")
	// ErrPINTooShort is returned when a PIN has fewer than 4 digits.
	ErrPINTooShort = errors.New("PIN too short")
	// ErrInvalidPIN is returned when a PIN is too long or not numeric.
	ErrInvalidPIN = errors.New("PIN must be 4 to 6 digits")
	// ErrInvalidCredentials is returned by Login on any mismatch.
	ErrInvalidCredentials = errors.New("invalid phone or PIN")
)

// Customer is a registered shopper identified by normalized phone digits.
type Customer struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Email    string    `json:"email,omitempty"`
	PINHash  string    `json:"pinHash"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Repository persists customers keyed by normalized phone.
type Repository interface {
	Get(ctx context.Context, id string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
}

// Service registers and authenticates customers. PINs are stored as an
// HMAC-SHA256 digest keyed by a server-side pepper.
type Service struct {
	repo   Repository
	pepper []byte
	now    func() time.Time
}

// NewService creates a Service.
func NewService(repo Repository, pepper []byte) *Service {
	return &Service{repo: repo, pepper: pepper, now: time.Now}
}

// RegisterRequest holds registration input.
type RegisterRequest struct {
	Name  string
	Phone string
	Email string
	PIN   string
}

// Register creates the customer, or replaces an existing one with the same
// phone. Re-registration is the only way to change a PIN.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	id := NormalizePhone(req.Phone)
	if len(id) < minPhoneDigits {
		return nil, ErrPhoneTooShort
	}
	if err := validatePIN(req.PIN); err != nil {
		return nil, err
	}

	joined := s.now().UTC()
	if prev, err := s.repo.Get(ctx, id); err == nil {
		joined = prev.JoinedAt
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "lookup customer")
	}

	c := &Customer{
		ID:       id,
		Name:     name,
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		PINHash:  s.hash(req.PIN),
		JoinedAt: joined,
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save customer")
	}
	return c, nil
}

// Login returns the customer when phone and PIN match.
func (s *Service) Login(ctx context.Context, phone, pin string) (*Customer, error) {
	c, err := s.repo.Get(ctx, NormalizePhone(phone))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "lookup customer")
	}
	stored, err := hex.DecodeString(c.PINHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	computed, _ := hex.DecodeString(s.hash(pin))
	if subtle.ConstantTimeCompare(stored, computed) != 1 {
		return nil, ErrInvalidCredentials
	}
	return c, nil
}

func (s *Service) hash(pin string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(pin))
	return hex.EncodeToString(mac.Sum(nil))
}

func validatePIN(pin string) error {
	if len(pin) < minPINLength {
		return ErrPINTooShort
	}
	if len(pin) > maxPINLength {
		return ErrInvalidPIN
	}
	for i := range len(pin) {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}
