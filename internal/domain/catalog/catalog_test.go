package catalog

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() Product {
	return Product{
		ID:        "p1",
		Name:      "Blue Dream",
		Published: true,
		Variants: []Variant{
			{Label: "1g", Price: decimal.NewFromInt(10), Stock: 5},
			{Label: "3.5g", Price: decimal.NewFromInt(30), Stock: 5},
		},
	}
}

func TestProduct_Validate(t *testing.T) {
	p := validProduct()
	require.NoError(t, p.Validate())

	tests := []struct {
		name   string
		mutate func(p *Product)
		reason string
	}{
		{name: "missing id", mutate: func(p *Product) { p.ID = "" }, reason: "id required"},
		{name: "missing name", mutate: func(p *Product) { p.Name = "" }, reason: "name required"},
		{name: "negative stock", mutate: func(p *Product) { p.Stock = -1 }, reason: "stock must not be negative"},
		{name: "empty label", mutate: func(p *Product) { p.Variants[1].Label = "" }, reason: "variant label required"},
		{
			name:   "negative price",
			mutate: func(p *Product) { p.Variants[0].Price = decimal.NewFromInt(-1) },
			reason: "variant 1g: price must not be negative",
		},
		{
			name: "duplicate label",
			mutate: func(p *Product) {
				p.Variants[1] = Variant{Label: "1g", Price: decimal.NewFromInt(50), Stock: 5}
			},
			reason: "duplicate variant label 1g",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(&p)
			var invalid *InvalidProductError
			require.ErrorAs(t, p.Validate(), &invalid)
			assert.Equal(t, tt.reason, invalid.Reason)
		})
	}

	t.Run("no variants", func(t *testing.T) {
		p := validProduct()
		p.Variants = nil
		assert.True(t, errors.Is(p.Validate(), ErrNoVariants))
	})
}

func TestProduct_Clone(t *testing.T) {
	p := validProduct()
	c := p.Clone()
	c.Variants[0].Stock = 0
	assert.Equal(t, 5, p.Variants[0].Stock)
}

func TestPublished(t *testing.T) {
	hidden := validProduct()
	hidden.ID = "p2"
	hidden.Published = false
	got := Published([]Product{validProduct(), hidden})
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}
