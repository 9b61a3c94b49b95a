package wchain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AddressParty is the nested address object used throughout the Blockscout
// v2 API ("from", "to", token owners and so on).
type AddressParty struct {
	Hash string `json:"hash"`
}

// TransferTotal carries the raw on-chain value of a token transfer together
// with the token's decimals.
type TransferTotal struct {
	Value    string      `json:"value"`
	Decimals json.Number `json:"decimals"`
}

// TokenInfo is the token metadata embedded in transfer records.
type TokenInfo struct {
	Address  string      `json:"address"`
	Symbol   string      `json:"symbol"`
	Decimals json.Number `json:"decimals"`
}

// Transfer is a single token transfer record from the explorer feed.
// Records are immutable once observed; TransactionHash plus LogIndex
// uniquely identify a transfer and are the basis for deduplication.
type Transfer struct {
	TransactionHash string        `json:"transaction_hash"`
	LogIndex        json.Number   `json:"log_index"`
	Timestamp       string        `json:"timestamp"`
	BlockNumber     int64         `json:"block_number"`
	From            AddressParty  `json:"from"`
	To              AddressParty  `json:"to"`
	Total           TransferTotal `json:"total"`
	Token           TokenInfo     `json:"token"`
	Method          string        `json:"method"`
}

// ID returns the deduplication identifier for this transfer.
func (t *Transfer) ID() string {
	return t.TransactionHash + ":" + t.LogIndex.String()
}

// Amount returns the transfer value normalized by the token's decimals.
// Malformed values normalize to zero rather than failing the poll cycle.
func (t *Transfer) Amount() decimal.Decimal {
	raw, err := decimal.NewFromString(t.Total.Value)
	if err != nil {
		return decimal.Zero
	}

	decimals := int32(18)
	if d, err := t.Total.Decimals.Int64(); err == nil && d >= 0 {
		decimals = int32(d)
	} else if d, err := t.Token.Decimals.Int64(); err == nil && d >= 0 {
		decimals = int32(d)
	}

	return raw.Shift(-decimals)
}

// Time parses the explorer's ISO timestamp, returning the zero time when the
// field is absent or unparsable.
func (t *Transfer) Time() time.Time {
	if t.Timestamp == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, strings.Replace(t.Timestamp, "Z", "+00:00", 1))
	if err != nil {
		// Some explorer deployments emit fractional seconds
		ts, err = time.Parse("2006-01-02T15:04:05.000000Z07:00", t.Timestamp)
		if err != nil {
			return time.Time{}
		}
	}
	return ts.UTC()
}

// transfersResponse wraps the paginated token-transfers endpoint.
type transfersResponse struct {
	Items []Transfer `json:"items"`
}

// Quote is a point-in-time price snapshot from the OG88 price API.
// Stale marks quotes served from cache after a failed refresh.
type Quote struct {
	PriceUSD    decimal.Decimal `json:"price_usd"`
	PriceWCO    decimal.Decimal `json:"price_wco"`
	MarketCap   decimal.Decimal `json:"market_cap"`
	LastUpdated string          `json:"last_updated"`

	FetchedAt time.Time `json:"-"`
	Stale     bool      `json:"-"`
}

// tokenDetail is the Blockscout token info endpoint payload.
type tokenDetail struct {
	TotalSupply string      `json:"total_supply"`
	Decimals    json.Number `json:"decimals"`
	Symbol      string      `json:"symbol"`
}

// tokenBalance is one entry of an address's token-balances listing.
type tokenBalance struct {
	Token TokenInfo `json:"token"`
	Value string    `json:"value"`
}

// Counters mirrors the explorer's token counters endpoint.
type Counters struct {
	TokenHoldersCount json.Number `json:"token_holders_count"`
	TransfersCount    json.Number `json:"transfers_count"`
}

// SupplyOverview is the aggregate supply snapshot backing /supply.
type SupplyOverview struct {
	TotalSupply decimal.Decimal
	Burned      decimal.Decimal
	Circulating decimal.Decimal
}
