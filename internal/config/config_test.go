package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Wallet.Address = "eth|0xabc"
	return cfg
}

func TestDefaultsValidateWithAddress(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with an address should validate: %v", err)
	}
}

func TestValidateRequiresAddress(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected a validation error without a wallet address")
	}
	if !strings.Contains(err.Error(), "wallet: address") {
		t.Errorf("error = %v, want a wallet address complaint", err)
	}
}

func TestValidateLiveTradingNeedsSigningKey(t *testing.T) {
	cfg := validConfig()
	cfg.DryRun = false
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "private_key or encrypted_key_path") {
		t.Fatalf("error = %v, want a signing credential complaint", err)
	}

	cfg.Wallet.PrivateKey = "0xkey"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("live config with a private key should validate: %v", err)
	}
}

func TestValidateThresholdOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Trading.MomentumThreshold = 0.02
	cfg.Trading.MeanRevThreshold = 0.01
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "mean_rev_threshold must exceed momentum_threshold") {
		t.Fatalf("error = %v, want the threshold ordering complaint", err)
	}
}

func TestValidateArbitragePath(t *testing.T) {
	tests := []struct {
		name string
		path []string
		want string
	}{
		{"too short", []string{"GUSDC", "GALA", "GUSDC"}, "exactly 4 assets"},
		{"open loop", []string{"GUSDC", "GALA", "GWETH", "GALA"}, "start and end on the same asset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Arbitrage.Path = tt.path
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateRedisLedgerNeedsAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.Backend = "redis"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "redis backend requires redis.addr") {
		t.Fatalf("error = %v, want the redis addr complaint", err)
	}

	cfg.Redis.Addr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("redis ledger with an addr should validate: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "yolo"
	cfg.Trading.NotionalUSD = 0
	cfg.Trading.FibLookback = 2
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected a validation error")
	}
	for _, want := range []string{"unknown mode", "notional_usd", "fib_lookback"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestLoadTOMLAndDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
mode = "monitor"
dry_run = true

[wallet]
address = "eth|0xabc"

[trading]
notional_usd = 2.5
tick_interval = "45s"
cooldown = "2m"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "monitor" {
		t.Errorf("mode = %q, want monitor", cfg.Mode)
	}
	if cfg.Trading.NotionalUSD != 2.5 {
		t.Errorf("notional = %v, want 2.5", cfg.Trading.NotionalUSD)
	}
	if cfg.Trading.TickInterval.Duration != 45*time.Second {
		t.Errorf("tick_interval = %v, want 45s", cfg.Trading.TickInterval.Duration)
	}
	if cfg.Trading.Cooldown.Duration != 2*time.Minute {
		t.Errorf("cooldown = %v, want 2m", cfg.Trading.Cooldown.Duration)
	}
	// Untouched sections keep their defaults.
	if cfg.Trading.SlippageBps != 100 {
		t.Errorf("slippage_bps = %d, want the default 100", cfg.Trading.SlippageBps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GSWAPBOT_WALLET_ADDRESS", "eth|0xenv")
	t.Setenv("GSWAPBOT_TRADING_TICK_INTERVAL", "90s")
	t.Setenv("GSWAPBOT_TRADING_SLIPPAGE_BPS", "250")
	t.Setenv("GSWAPBOT_DRY_RUN", "false")
	t.Setenv("GSWAPBOT_ARBITRAGE_PATH", "GUSDC, GALA ,GWETH,GUSDC")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Wallet.Address != "eth|0xenv" {
		t.Errorf("address = %q, want the env override", cfg.Wallet.Address)
	}
	if cfg.Trading.TickInterval.Duration != 90*time.Second {
		t.Errorf("tick_interval = %v, want 90s", cfg.Trading.TickInterval.Duration)
	}
	if cfg.Trading.SlippageBps != 250 {
		t.Errorf("slippage_bps = %d, want 250", cfg.Trading.SlippageBps)
	}
	if cfg.DryRun {
		t.Error("dry_run = true, want the env override to false")
	}
	want := []string{"GUSDC", "GALA", "GWETH", "GUSDC"}
	if len(cfg.Arbitrage.Path) != len(want) {
		t.Fatalf("path = %v, want %v", cfg.Arbitrage.Path, want)
	}
	for i := range want {
		if cfg.Arbitrage.Path[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, cfg.Arbitrage.Path[i], want[i])
		}
	}
}
