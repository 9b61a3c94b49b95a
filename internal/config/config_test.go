package config

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.BurnWalletAddress != "0x000000000000000000000000000000000000dead" {
		t.Errorf("burn wallet not lowercased: %s", cfg.BurnWalletAddress)
	}
	if !cfg.BigBuyThresholdUSD.Equal(decimal.NewFromInt(50)) {
		t.Errorf("default threshold: got %s, want 50", cfg.BigBuyThresholdUSD)
	}
	if cfg.BuyPollInterval != cfg.BurnPollInterval {
		t.Errorf("buy interval should default to burn interval, got %s vs %s",
			cfg.BuyPollInterval, cfg.BurnPollInterval)
	}
	if len(cfg.LiquidityAddresses) != 1 {
		t.Fatalf("expected 1 default liquidity address, got %d", len(cfg.LiquidityAddresses))
	}
	if cfg.LiquidityAddresses[0] != strings.ToLower("0xC61856cdf226645eaB487352C031Ec4341993F87") {
		t.Errorf("liquidity address not lowercased: %s", cfg.LiquidityAddresses[0])
	}
}

func TestThresholdKeyPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		newKey   string
		legacy   string
		expected string
	}{
		{"new key wins", "75", "10", "75"},
		{"legacy used when new absent", "", "10", "10"},
		{"default when both absent", "", "", "50"},
		{"unparsable new key falls through to legacy", "not-a-number", "10", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OG88_BIG_BUY_THRESHOLD_USD", tt.newKey)
			t.Setenv("OG88_BIG_BUY_THRESHOLD", tt.legacy)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			want, _ := decimal.NewFromString(tt.expected)
			if !cfg.BigBuyThresholdUSD.Equal(want) {
				t.Errorf("got %s, want %s", cfg.BigBuyThresholdUSD, want)
			}
		})
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero threshold", "OG88_BIG_BUY_THRESHOLD_USD", "0"},
		{"negative threshold", "OG88_BIG_BUY_THRESHOLD_USD", "-5"},
		{"zero fallback", "OG88_BIG_BUY_FALLBACK_TOKENS", "0"},
		{"bad burn address", "BURN_WALLET_ADDRESS", "not-an-address"},
		{"short burn address", "BURN_WALLET_ADDRESS", "0x1234"},
		{"bad liquidity address", "OG88_LIQUIDITY_ADDRESSES", "0xC61856cdf226645eaB487352C031Ec4341993F87,bogus"},
		{"bad token address", "OG88_TOKEN_ADDRESS", "0xZZ41fC048b488d92fdF73624a2128D10A847E88ZZ"},
		{"unknown alert mode", "ALERT_MODE", "carrier-pigeon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected Load to fail with %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestBuyIntervalOverride(t *testing.T) {
	t.Setenv("BURN_MONITOR_POLL_SECONDS", "60")
	t.Setenv("OG88_BUY_MONITOR_POLL_SECONDS", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BuyPollInterval.Seconds() != 30 {
		t.Errorf("buy interval: got %s, want 30s", cfg.BuyPollInterval)
	}
	if cfg.BurnPollInterval.Seconds() != 60 {
		t.Errorf("burn interval: got %s, want 60s", cfg.BurnPollInterval)
	}
}

func TestIsHexAddress(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"0x000000000000000000000000000000000000dead", true},
		{"0xD1841fC048b488d92fdF73624a2128D10A847E88", true},
		{"", false},
		{"0x", false},
		{"D1841fC048b488d92fdF73624a2128D10A847E88", false},
		{"0xD1841fC048b488d92fdF73624a2128D10A847Egg", false},
	}
	for _, tt := range tests {
		if got := isHexAddress(tt.addr); got != tt.valid {
			t.Errorf("isHexAddress(%q): got %v, want %v", tt.addr, got, tt.valid)
		}
	}
}
