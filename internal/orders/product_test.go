package orders

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewProduct_RejectsNegativeValues(t *testing.T) {
	tests := []struct {
		name  string
		price decimal.Decimal
		stock int
	}{
		{"negative price", decimal.NewFromFloat(-0.01), 1},
		{"negative stock", decimal.NewFromInt(10), -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewProduct(1, "Widget", tc.price, tc.stock)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
		})
	}
}

func TestNewProduct_AllowsZeroPriceAndStock(t *testing.T) {
	p, err := NewProduct(7, "Free sample", decimal.Zero, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock())
	assert.Equal(t, "[7] Free sample - $0.00 | Stock: 0", p.String())
}

func TestAdjustStock(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta int
		ok    bool
		want  int
	}{
		{"restock", 5, 3, true, 8},
		{"reserve", 5, -3, true, 2},
		{"reserve everything", 5, -5, true, 0},
		{"over-reserve", 5, -6, false, 5},
		{"zero delta", 0, 0, true, 0},
		{"overflow", math.MaxInt - 1, 2, false, math.MaxInt - 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewProduct(1, "Widget", decimal.NewFromInt(1), tc.start)
			require.NoError(t, err)
			assert.Equal(t, tc.ok, p.AdjustStock(tc.delta))
			assert.Equal(t, tc.want, p.Stock())
		})
	}
}

func TestAdjustStock_NeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.IntRange(0, 1_000_000).Draw(t, "start")
		p, err := NewProduct(1, "Widget", decimal.NewFromInt(1), start)
		if err != nil {
			t.Fatalf("new product: %v", err)
		}
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			before := p.Stock()
			delta := rapid.Int().Draw(t, "delta")
			ok := p.AdjustStock(delta)
			if p.Stock() < 0 {
				t.Fatalf("stock went negative: %d", p.Stock())
			}
			if !ok && p.Stock() != before {
				t.Fatalf("rejected adjustment changed stock %d -> %d", before, p.Stock())
			}
			if ok && p.Stock() != before+delta {
				t.Fatalf("accepted adjustment %d: %d -> %d", delta, before, p.Stock())
			}
		}
	})
}
