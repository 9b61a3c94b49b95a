package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SerxWco/OG88/internal/secrets"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string

	// Telegram
	TelegramBotToken string

	// Database
	DatabaseDSN         string
	DatabaseMaxConns    int
	DatabaseMaxIdleTime time.Duration

	// Explorer / price APIs
	ExplorerBaseURL string
	PriceAPIURL     string

	// Token addresses (lowercased hex)
	TokenAddress       string
	BurnWalletAddress  string
	LiquidityAddresses []string

	// Big buy detection
	BigBuyThresholdUSD     decimal.Decimal // converted to OG88 units each cycle
	FallbackTokenThreshold decimal.Decimal // used when no price quote is available

	// Polling
	BurnPollInterval time.Duration
	BuyPollInterval  time.Duration
	PollGraceTimeout time.Duration

	// Caching
	TransferCacheTTL time.Duration
	PriceCacheTTL    time.Duration
	SupplyCacheTTL   time.Duration

	// Rate limits (requests per second)
	ExplorerRPS float64
	PriceRPS    float64

	// Fetch retry
	FetchAttempts int

	// Deduplication window (identifiers retained per monitor)
	DedupWindow int

	// Recent events kept per alert type for on-demand queries
	RecentEventsLimit int

	// Alerts
	AlertMode        string // telegram, log, or comma-separated combination
	BurnAnimationURL string
	BuyAnimationURL  string

	// Metrics/Health
	HealthPort int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "production"),
		TelegramBotToken:    secrets.GetOptionalSecret("TELEGRAM_BOT_TOKEN", ""),
		DatabaseDSN:         secrets.GetOptionalSecret("DATABASE_DSN", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 10),
		DatabaseMaxIdleTime: time.Duration(getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", 5)) * time.Minute,
		ExplorerBaseURL:     getEnv("BLOCKSCOUT_API_BASE", "https://scan.w-chain.com/api/v2"),
		PriceAPIURL:         getEnv("OG88_PRICE_API_URL", "https://og88-price-api-production.up.railway.app/price"),
		TokenAddress:        strings.ToLower(getEnv("OG88_TOKEN_ADDRESS", "0xD1841fC048b488d92fdF73624a2128D10A847E88")),
		BurnWalletAddress:   strings.ToLower(getEnv("BURN_WALLET_ADDRESS", "0x000000000000000000000000000000000000dEaD")),
		LiquidityAddresses:  parseAddressList(getEnv("OG88_LIQUIDITY_ADDRESSES", "0xC61856cdf226645eaB487352C031Ec4341993F87")),
		BurnPollInterval:    time.Duration(getEnvInt("BURN_MONITOR_POLL_SECONDS", 60)) * time.Second,
		PollGraceTimeout:    time.Duration(getEnvInt("POLL_GRACE_TIMEOUT_SECONDS", 45)) * time.Second,
		TransferCacheTTL:    time.Duration(getEnvInt("TRANSFER_CACHE_TTL_SECONDS", 10)) * time.Second,
		PriceCacheTTL:       time.Duration(getEnvInt("PRICE_CACHE_TTL_SECONDS", 60)) * time.Second,
		SupplyCacheTTL:      time.Duration(getEnvInt("SUPPLY_CACHE_TTL_SECONDS", 120)) * time.Second,
		ExplorerRPS:         getEnvFloat("EXPLORER_RPS", 5.0),
		PriceRPS:            getEnvFloat("PRICE_API_RPS", 2.0),
		FetchAttempts:       getEnvInt("FETCH_ATTEMPTS", 3),
		DedupWindow:         getEnvInt("DEDUP_WINDOW", 512),
		RecentEventsLimit:   getEnvInt("RECENT_EVENTS_LIMIT", 25),
		AlertMode:           getEnv("ALERT_MODE", "telegram"),
		BurnAnimationURL:    getEnv("BURN_ALERT_ANIMATION_URL", ""),
		BuyAnimationURL:     getEnv("BIG_BUY_ALERT_ANIMATION_URL", ""),
		HealthPort:          getEnvInt("HEALTH_PORT", 8080),
	}

	// New key overrides the legacy OG88_BIG_BUY_THRESHOLD name
	cfg.BigBuyThresholdUSD = getEnvDecimalAny(
		[]string{"OG88_BIG_BUY_THRESHOLD_USD", "OG88_BIG_BUY_THRESHOLD"},
		decimal.NewFromInt(50),
	)
	cfg.FallbackTokenThreshold = getEnvDecimal("OG88_BIG_BUY_FALLBACK_TOKENS", decimal.NewFromInt(2500))

	// Buy monitor defaults to the burn interval when not set explicitly
	cfg.BuyPollInterval = time.Duration(
		getEnvInt("OG88_BUY_MONITOR_POLL_SECONDS", int(cfg.BurnPollInterval/time.Second)),
	) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors. Anything that fails here must
// fail at startup, never inside a poll cycle.
func (c *Config) Validate() error {
	if !isHexAddress(c.TokenAddress) {
		return fmt.Errorf("OG88_TOKEN_ADDRESS is not a valid address: %s", c.TokenAddress)
	}
	if !isHexAddress(c.BurnWalletAddress) {
		return fmt.Errorf("BURN_WALLET_ADDRESS is not a valid address: %s", c.BurnWalletAddress)
	}
	for _, addr := range c.LiquidityAddresses {
		if !isHexAddress(addr) {
			return fmt.Errorf("OG88_LIQUIDITY_ADDRESSES contains an invalid address: %s", addr)
		}
	}

	if c.BigBuyThresholdUSD.Sign() <= 0 {
		return fmt.Errorf("OG88_BIG_BUY_THRESHOLD_USD must be positive, got %s", c.BigBuyThresholdUSD)
	}
	if c.FallbackTokenThreshold.Sign() <= 0 {
		return fmt.Errorf("OG88_BIG_BUY_FALLBACK_TOKENS must be positive, got %s", c.FallbackTokenThreshold)
	}

	if c.BurnPollInterval <= 0 {
		return fmt.Errorf("BURN_MONITOR_POLL_SECONDS must be positive")
	}
	if c.BuyPollInterval <= 0 {
		return fmt.Errorf("OG88_BUY_MONITOR_POLL_SECONDS must be positive")
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("FETCH_ATTEMPTS must be at least 1")
	}
	if c.DedupWindow < 1 {
		return fmt.Errorf("DEDUP_WINDOW must be at least 1")
	}
	if c.RecentEventsLimit < 1 {
		return fmt.Errorf("RECENT_EVENTS_LIMIT must be at least 1")
	}

	for _, mode := range strings.Split(c.AlertMode, ",") {
		switch strings.TrimSpace(mode) {
		case "telegram", "log":
		default:
			return fmt.Errorf("invalid ALERT_MODE value: %s (valid values: telegram, log)", mode)
		}
	}

	return nil
}

// LiquiditySet returns the configured liquidity addresses as a lookup set.
func (c *Config) LiquiditySet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.LiquidityAddresses))
	for _, addr := range c.LiquidityAddresses {
		set[addr] = struct{}{}
	}
	return set
}

func isHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

func parseAddressList(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.ToLower(strings.TrimSpace(item)); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvDecimalAny returns the first parsable value among the given keys,
// so a renamed variable takes precedence over its legacy alias.
func getEnvDecimalAny(keys []string, defaultValue decimal.Decimal) decimal.Decimal {
	for _, key := range keys {
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}
