package referral

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

const (
	codePrefix  = "REF"
	codeEntropy = 6
	maxAttempts = 16
)

// ErrCodeSpaceExhausted is returned when no unused code could be drawn.
var ErrCodeSpaceExhausted = errors.New("could not generate a unique referral code")

// Generator issues fresh referral codes such as "REF4F9A2C".
type Generator struct {
	index *Index
	draw  func() string
}

// NewGenerator creates a Generator that avoids codes index has seen.
// index may be nil.
func NewGenerator(index *Index) *Generator {
	return &Generator{index: index, draw: randomCode}
}

// Next returns a code no stored order has issued.
func (g *Generator) Next(_ context.Context) (string, error) {
	for range maxAttempts {
		code := g.draw()
		if g.index == nil || !g.index.MaybeIssued(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func randomCode() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return codePrefix + strings.ToUpper(id[:codeEntropy])
}
