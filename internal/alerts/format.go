package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatNumber renders large values with K/M/B suffixes
func FormatNumber(num decimal.Decimal, places int32) string {
	f, _ := num.Float64()
	switch {
	case f >= 1e9:
		return num.Div(decimal.NewFromInt(1e9)).StringFixed(places) + "B"
	case f >= 1e6:
		return num.Div(decimal.NewFromInt(1e6)).StringFixed(places) + "M"
	case f >= 1e3:
		return num.Div(decimal.NewFromInt(1e3)).StringFixed(places) + "K"
	default:
		return num.StringFixed(places)
	}
}

// FormatPrice renders a USD price with precision scaled to its magnitude
func FormatPrice(price decimal.Decimal) string {
	switch {
	case price.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return "$" + groupThousands(price.StringFixed(4))
	case price.GreaterThanOrEqual(decimal.RequireFromString("0.01")):
		return "$" + price.StringFixed(6)
	default:
		return "$" + price.StringFixed(8)
	}
}

// FormatWCOPrice renders a WCO-denominated price without a currency symbol
func FormatWCOPrice(price decimal.Decimal) string {
	switch {
	case price.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return groupThousands(price.StringFixed(4))
	case price.GreaterThanOrEqual(decimal.RequireFromString("0.01")):
		return price.StringFixed(6)
	default:
		return price.StringFixed(8)
	}
}

// FormatTokenAmount renders a token amount with thousands separators and
// trailing zeros trimmed
func FormatTokenAmount(amount decimal.Decimal) string {
	formatted := groupThousands(amount.StringFixed(4))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	return formatted
}

// FormatTimestamp renders a time as a user-facing UTC string
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "Unknown"
	}
	return ts.UTC().Format("2006-01-02 15:04:05 UTC")
}

// FormatUSD renders a fiat value, or N/A when the price feed was unusable
func FormatUSD(value decimal.Decimal) string {
	if !value.IsPositive() {
		return "N/A"
	}
	return "$" + groupThousands(value.StringFixed(2))
}

// ShortenAddress truncates a hex address for display
func ShortenAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(fracPart)
	return b.String()
}

// BurnMessage builds the Markdown burn alert caption
func BurnMessage(event *Event) string {
	amount := FormatTokenAmount(event.Amount)
	usd := "N/A"
	if event.USDValue.IsPositive() {
		usd = FormatUSD(event.USDValue)
	}
	return fmt.Sprintf(
		"🚨🚨 PANDA JUST ATE %s OG88 AND SPIT OUT THE ASHES 🔥🐼\n"+
			"%s OG88 (%s) PERMANENTLY DELETED FOREVER\n"+
			"Supply just got even tighter while you were scrolling\n"+
			"Every burn = richer holders 😈\n"+
			"#OG88 #BurnPrinterGoBrrrrr",
		amount, amount, usd,
	)
}

// BuyMessage builds the Markdown big buy alert caption
func BuyMessage(event *Event) string {
	amount := FormatTokenAmount(event.Amount)

	usd := "N/A"
	if event.USDValue.IsPositive() {
		usd = FormatUSD(event.USDValue)
	}
	wco := "N/A"
	if event.WCOValue.IsPositive() {
		wco = FormatTokenAmount(event.WCOValue) + " WCO"
	}

	buyer := event.To
	if buyer == "" {
		buyer = "Unknown"
	}
	method := event.Method
	if method == "" {
		method = "swap"
	}

	return fmt.Sprintf(
		"🐼 **OG88 BIG BUY ALERT!** 🐼\n\n"+
			"Wow! Someone just scooped up *%s OG88*!\n\n"+
			"💰 USD Value: %s\n"+
			"🪙 WCO Value: %s\n\n"+
			"Buyer: `%s`\n"+
			"Method: %s\n"+
			"⏱️ Time: %s\n"+
			"🔗 Tx: [View on W-Scan](%s)\n\n"+
			"🎉 Stay tuned — OG88 activity is heating up!",
		amount, usd, wco, buyer, method, FormatTimestamp(event.Timestamp), event.ExplorerURL,
	)
}

// Message picks the template matching the event's kind
func Message(event *Event) string {
	if event.Kind == KindBurn {
		return BurnMessage(event)
	}
	return BuyMessage(event)
}
