package alerts

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.345", "12.35"},
		{"1500", "1.50K"},
		{"2500000", "2.50M"},
		{"8800000000", "8.80B"},
	}
	for _, tt := range tests {
		got := FormatNumber(decimal.RequireFromString(tt.in), 2)
		assert.Equal(t, tt.want, got, "input %s", tt.in)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.5", "$1,234.5000"},
		{"0.02", "$0.020000"},
		{"0.00012345", "$0.00012345"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(decimal.RequireFromString(tt.in)), "input %s", tt.in)
	}
}

func TestFormatTokenAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2500", "2,500"},
		{"2500.5000", "2,500.5"},
		{"1234567.8901", "1,234,567.8901"},
		{"0.1000", "0.1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTokenAmount(decimal.RequireFromString(tt.in)), "input %s", tt.in)
	}
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$1,234.57", FormatUSD(decimal.RequireFromString("1234.567")))
	assert.Equal(t, "N/A", FormatUSD(decimal.Zero))
	assert.Equal(t, "N/A", FormatUSD(decimal.NewFromInt(-5)))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-01 12:30:00 UTC", FormatTimestamp(ts))
	assert.Equal(t, "Unknown", FormatTimestamp(time.Time{}))
}

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "0x1234...cdef", ShortenAddress("0x1234567890abcdef1234567890abcdef12345cdef"))
	assert.Equal(t, "0xdead", ShortenAddress("0xdead"))
}

func TestBurnMessage(t *testing.T) {
	event := &Event{
		Kind:     KindBurn,
		Amount:   decimal.NewFromInt(5000),
		USDValue: decimal.NewFromInt(100),
	}
	msg := BurnMessage(event)
	assert.Contains(t, msg, "5,000 OG88")
	assert.Contains(t, msg, "$100.00")
	assert.Contains(t, msg, "#BurnPrinterGoBrrrrr")
}

func TestBurnMessageWithoutPrice(t *testing.T) {
	event := &Event{Kind: KindBurn, Amount: decimal.NewFromInt(5000)}
	assert.Contains(t, BurnMessage(event), "(N/A)")
}

func TestBuyMessage(t *testing.T) {
	event := &Event{
		Kind:        KindBuy,
		Amount:      decimal.NewFromInt(5000),
		USDValue:    decimal.NewFromInt(100),
		WCOValue:    decimal.NewFromInt(7500),
		To:          "0xBuyer",
		Method:      "swap",
		Timestamp:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ExplorerURL: "https://scan.w-chain.com/tx/0xaaa",
	}
	msg := BuyMessage(event)
	assert.Contains(t, msg, "*5,000 OG88*")
	assert.Contains(t, msg, "USD Value: $100.00")
	assert.Contains(t, msg, "WCO Value: 7,500 WCO")
	assert.Contains(t, msg, "`0xBuyer`")
	assert.Contains(t, msg, "[View on W-Scan](https://scan.w-chain.com/tx/0xaaa)")
}

func TestBuyMessageDefaults(t *testing.T) {
	event := &Event{Kind: KindBuy, Amount: decimal.NewFromInt(5000)}
	msg := BuyMessage(event)
	assert.Contains(t, msg, "`Unknown`")
	assert.Contains(t, msg, "Method: swap")
	assert.Contains(t, msg, "USD Value: N/A")
	assert.Contains(t, msg, "Time: Unknown")
}
