package convert

import (
	"fmt"

	"github.com/SerxWco/OG88/internal/wchain"
	"github.com/shopspring/decimal"
)

// Converter turns the configured USD alert threshold into a token-denominated
// threshold using the live price, falling back to a fixed token amount when
// no usable price is available.
type Converter struct {
	fiatThreshold  decimal.Decimal
	fallbackTokens decimal.Decimal
}

// New creates a Converter. Both thresholds must be positive.
func New(fiatThreshold, fallbackTokens decimal.Decimal) (*Converter, error) {
	if !fiatThreshold.IsPositive() {
		return nil, fmt.Errorf("fiat threshold must be positive, got %s", fiatThreshold)
	}
	if !fallbackTokens.IsPositive() {
		return nil, fmt.Errorf("fallback token threshold must be positive, got %s", fallbackTokens)
	}
	return &Converter{
		fiatThreshold:  fiatThreshold,
		fallbackTokens: fallbackTokens,
	}, nil
}

// TokenThreshold returns the minimum token amount a buy must exceed to alert.
// A nil quote or a non-positive price yields the fallback threshold, so a
// broken price feed degrades to a fixed token cutoff instead of silencing or
// flooding alerts.
func (c *Converter) TokenThreshold(quote *wchain.Quote) decimal.Decimal {
	if quote == nil || !quote.PriceUSD.IsPositive() {
		return c.fallbackTokens
	}
	return c.fiatThreshold.Div(quote.PriceUSD)
}

// USDValue returns the fiat value of a token amount, or zero when no usable
// price is available.
func (c *Converter) USDValue(amount decimal.Decimal, quote *wchain.Quote) decimal.Decimal {
	if quote == nil || !quote.PriceUSD.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(quote.PriceUSD)
}

// WCOValue returns the WCO value of a token amount, or zero when no usable
// price is available.
func (c *Converter) WCOValue(amount decimal.Decimal, quote *wchain.Quote) decimal.Decimal {
	if quote == nil || !quote.PriceWCO.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(quote.PriceWCO)
}
