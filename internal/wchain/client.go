package wchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SerxWco/OG88/internal/config"
	"github.com/SerxWco/OG88/internal/metrics"
	"github.com/SerxWco/OG88/internal/ratelimit"
	"github.com/jpillora/backoff"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Direction selects which side of a transfer the address filter applies to.
type Direction string

const (
	DirectionTo   Direction = "to"
	DirectionFrom Direction = "from"
)

// Client talks to the W-Chain Blockscout explorer and the OG88 price API.
// Reads are cached with short TTLs so the burn and buy monitors polling
// overlapping data in the same window do not hit the APIs twice.
type Client struct {
	explorerBase string
	priceURL     string
	token        string
	httpClient   *http.Client
	log          *logrus.Logger

	explorerLimiter *ratelimit.Limiter
	priceLimiter    *ratelimit.Limiter

	attempts    int
	transferTTL time.Duration
	priceTTL    time.Duration
	supplyTTL   time.Duration

	transferCache sync.Map // "addr|direction" -> *transferEntry
	priceCache    atomic.Pointer[Quote]
	supplyCache   atomic.Pointer[supplyEntry]
	countersCache atomic.Pointer[countersEntry]
}

type transferEntry struct {
	fetchedAt time.Time
	items     []Transfer
}

type supplyEntry struct {
	fetchedAt time.Time
	overview  SupplyOverview
}

type countersEntry struct {
	fetchedAt time.Time
	counters  Counters
}

// NewClient creates a new W-Chain API client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		explorerBase:    cfg.ExplorerBaseURL,
		priceURL:        cfg.PriceAPIURL,
		token:           cfg.TokenAddress,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		log:             log,
		explorerLimiter: ratelimit.New(cfg.ExplorerRPS),
		priceLimiter:    ratelimit.New(cfg.PriceRPS),
		attempts:        cfg.FetchAttempts,
		transferTTL:     cfg.TransferCacheTTL,
		priceTTL:        cfg.PriceCacheTTL,
		supplyTTL:       cfg.SupplyCacheTTL,
	}
}

// TokenTransfers fetches the most recent OG88 transfers touching the given
// address, newest-first. Direction "to" returns inbound transfers, "from"
// outbound ones. Results are cached briefly; consecutive polls may still
// contain overlapping entries, which callers deduplicate.
func (c *Client) TokenTransfers(ctx context.Context, address string, direction Direction) ([]Transfer, error) {
	key := address + "|" + string(direction)
	if v, ok := c.transferCache.Load(key); ok {
		entry := v.(*transferEntry)
		if time.Since(entry.fetchedAt) < c.transferTTL {
			return entry.items, nil
		}
	}

	if err := c.explorerLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.explorerBase + "/addresses/" + url.PathEscape(address) + "/token-transfers")
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token)
	q.Set("filter", string(direction))
	u.RawQuery = q.Encode()

	var resp transfersResponse
	if err := c.getJSON(ctx, "token-transfers", u.String(), &resp); err != nil {
		return nil, err
	}

	c.transferCache.Store(key, &transferEntry{fetchedAt: time.Now(), items: resp.Items})
	return resp.Items, nil
}

// Price returns the latest OG88 price quote. When the upstream fetch fails
// and an earlier quote exists, that quote is returned with Stale set instead
// of an error so threshold conversion degrades rather than blocks.
func (c *Client) Price(ctx context.Context) (*Quote, error) {
	if cached := c.priceCache.Load(); cached != nil && time.Since(cached.FetchedAt) < c.priceTTL {
		return cached, nil
	}

	if err := c.priceLimiter.Wait(ctx); err != nil {
		return c.stalePriceOr(fmt.Errorf("rate limit wait: %w", err))
	}

	var quote Quote
	if err := c.getJSON(ctx, "price", c.priceURL, &quote); err != nil {
		return c.stalePriceOr(err)
	}

	quote.FetchedAt = time.Now()
	c.priceCache.Store(&quote)
	return &quote, nil
}

func (c *Client) stalePriceOr(err error) (*Quote, error) {
	if cached := c.priceCache.Load(); cached != nil {
		c.log.WithError(err).Warn("Price refresh failed, serving stale quote")
		stale := *cached
		stale.Stale = true
		return &stale, nil
	}
	return nil, err
}

// SupplyOverview returns total, burned and circulating supply. Burned supply
// is the token balance held across the given burn addresses.
func (c *Client) SupplyOverview(ctx context.Context, burnAddresses []string) (*SupplyOverview, error) {
	if cached := c.supplyCache.Load(); cached != nil && time.Since(cached.fetchedAt) < c.supplyTTL {
		overview := cached.overview
		return &overview, nil
	}

	if err := c.explorerLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var detail tokenDetail
	tokenURL := c.explorerBase + "/tokens/" + url.PathEscape(c.token)
	if err := c.getJSON(ctx, "token", tokenURL, &detail); err != nil {
		return nil, err
	}

	decimals := int32(18)
	if d, err := detail.Decimals.Int64(); err == nil && d >= 0 {
		decimals = int32(d)
	}

	total, err := decimal.NewFromString(detail.TotalSupply)
	if err != nil {
		return nil, fmt.Errorf("parse total supply %q: %w", detail.TotalSupply, err)
	}
	total = total.Shift(-decimals)

	burned := decimal.Zero
	for _, addr := range burnAddresses {
		balance, err := c.tokenBalance(ctx, addr, decimals)
		if err != nil {
			c.log.WithError(err).WithField("address", addr).Warn("Failed to fetch burn address balance")
			continue
		}
		burned = burned.Add(balance)
	}

	overview := SupplyOverview{
		TotalSupply: total,
		Burned:      burned,
		Circulating: total.Sub(burned),
	}
	c.supplyCache.Store(&supplyEntry{fetchedAt: time.Now(), overview: overview})
	return &overview, nil
}

func (c *Client) tokenBalance(ctx context.Context, address string, decimals int32) (decimal.Decimal, error) {
	if err := c.explorerLimiter.Wait(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("rate limit wait: %w", err)
	}

	var balances []tokenBalance
	u := c.explorerBase + "/addresses/" + url.PathEscape(address) + "/token-balances"
	if err := c.getJSON(ctx, "token-balances", u, &balances); err != nil {
		return decimal.Zero, err
	}

	for _, b := range balances {
		if !strings.EqualFold(b.Token.Address, c.token) {
			continue
		}
		raw, err := decimal.NewFromString(b.Value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse balance %q: %w", b.Value, err)
		}
		return raw.Shift(-decimals), nil
	}

	return decimal.Zero, nil
}

// TokenCounters returns holder and transfer counts for the token.
func (c *Client) TokenCounters(ctx context.Context) (*Counters, error) {
	if cached := c.countersCache.Load(); cached != nil && time.Since(cached.fetchedAt) < c.supplyTTL {
		counters := cached.counters
		return &counters, nil
	}

	if err := c.explorerLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var counters Counters
	u := c.explorerBase + "/tokens/" + url.PathEscape(c.token) + "/counters"
	if err := c.getJSON(ctx, "counters", u, &counters); err != nil {
		return nil, err
	}

	c.countersCache.Store(&countersEntry{fetchedAt: time.Now(), counters: counters})
	return &counters, nil
}

// getJSON performs a GET with bounded retry on transient failures. 4xx
// responses are not retried; timeouts, connection errors, 429 and 5xx are
// retried up to the configured attempt limit with jittered backoff.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	b := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    3 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.Duration()):
			}
		}

		start := time.Now()
		retryable, err := c.doGet(ctx, rawURL, out)
		metrics.RecordAPIRequest(endpoint, time.Since(start), err)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
		c.log.WithError(err).WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt + 1,
		}).Warn("Transient API failure, retrying")
	}

	return fmt.Errorf("%s: %d attempts failed: %w", endpoint, c.attempts, lastErr)
}

func (c *Client) doGet(ctx context.Context, rawURL string, out interface{}) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return true, err
		}
		return false, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}
