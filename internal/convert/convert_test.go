package convert

import (
	"testing"

	"github.com/SerxWco/OG88/internal/wchain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveThresholds(t *testing.T) {
	_, err := New(decimal.Zero, decimal.NewFromInt(2500))
	assert.Error(t, err)

	_, err = New(decimal.NewFromInt(50), decimal.NewFromInt(-1))
	assert.Error(t, err)

	_, err = New(decimal.NewFromInt(50), decimal.NewFromInt(2500))
	assert.NoError(t, err)
}

func TestTokenThreshold(t *testing.T) {
	c, err := New(decimal.NewFromInt(50), decimal.NewFromInt(2500))
	require.NoError(t, err)

	tests := []struct {
		name  string
		quote *wchain.Quote
		want  decimal.Decimal
	}{
		{
			name:  "live price",
			quote: &wchain.Quote{PriceUSD: decimal.RequireFromString("0.02")},
			want:  decimal.NewFromInt(2500),
		},
		{
			name:  "higher price lowers the token threshold",
			quote: &wchain.Quote{PriceUSD: decimal.RequireFromString("0.1")},
			want:  decimal.NewFromInt(500),
		},
		{
			name:  "nil quote falls back",
			quote: nil,
			want:  decimal.NewFromInt(2500),
		},
		{
			name:  "zero price falls back",
			quote: &wchain.Quote{PriceUSD: decimal.Zero},
			want:  decimal.NewFromInt(2500),
		},
		{
			name:  "negative price falls back",
			quote: &wchain.Quote{PriceUSD: decimal.NewFromInt(-1)},
			want:  decimal.NewFromInt(2500),
		},
		{
			name:  "stale quote still converts",
			quote: &wchain.Quote{PriceUSD: decimal.RequireFromString("0.02"), Stale: true},
			want:  decimal.NewFromInt(2500),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.TokenThreshold(tt.quote)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestUSDValue(t *testing.T) {
	c, err := New(decimal.NewFromInt(50), decimal.NewFromInt(2500))
	require.NoError(t, err)

	quote := &wchain.Quote{PriceUSD: decimal.RequireFromString("0.02")}
	got := c.USDValue(decimal.NewFromInt(5000), quote)
	assert.True(t, got.Equal(decimal.NewFromInt(100)))

	assert.True(t, c.USDValue(decimal.NewFromInt(5000), nil).IsZero())
}

func TestWCOValue(t *testing.T) {
	c, err := New(decimal.NewFromInt(50), decimal.NewFromInt(2500))
	require.NoError(t, err)

	quote := &wchain.Quote{PriceWCO: decimal.RequireFromString("1.5")}
	got := c.WCOValue(decimal.NewFromInt(100), quote)
	assert.True(t, got.Equal(decimal.NewFromInt(150)))

	assert.True(t, c.WCOValue(decimal.NewFromInt(100), &wchain.Quote{}).IsZero())
}
