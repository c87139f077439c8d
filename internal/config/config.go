// Package config defines the top-level configuration for gswapbot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by GSWAPBOT_* environment
// variables.
type Config struct {
	Wallet    WalletConfig    `toml:"wallet"`
	Gswap     GswapConfig     `toml:"gswap"`
	Trading   TradingConfig   `toml:"trading"`
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Gas       GasConfig       `toml:"gas"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Redis     RedisConfig     `toml:"redis"`
	Postgres  PostgresConfig  `toml:"postgres"`
	S3        S3Config        `toml:"s3"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
	DryRun    bool            `toml:"dry_run"`
}

// WalletConfig holds the trading wallet identity and signing credentials.
type WalletConfig struct {
	Address          string `toml:"address"`
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// GswapConfig holds the DEX API endpoints.
type GswapConfig struct {
	APIHost    string `toml:"api_host"`
	BundleHost string `toml:"bundle_host"`
}

// TradingConfig holds the per-tick decision parameters.
type TradingConfig struct {
	// BaseToken is the asset the signals trade; QuoteToken is the stable
	// asset the notional is denominated in.
	BaseToken   string  `toml:"base_token"`
	QuoteToken  string  `toml:"quote_token"`
	NotionalUSD float64 `toml:"notional_usd"`

	SlippageBps     int64 `toml:"slippage_bps"`
	MinProfitBps    int64 `toml:"min_profit_bps"`
	ProfitBufferBps int64 `toml:"profit_buffer_bps"`

	EmaAlpha          float64 `toml:"ema_alpha"`
	MomentumThreshold float64 `toml:"momentum_threshold"`
	MeanRevThreshold  float64 `toml:"mean_rev_threshold"`
	FibLookback       int     `toml:"fib_lookback"`

	TickInterval duration `toml:"tick_interval"`
	JitterMax    duration `toml:"jitter_max"`
	WaitTimeout  duration `toml:"wait_timeout"`
	PollInterval duration `toml:"poll_interval"`
	PollAttempts int      `toml:"poll_attempts"`
	Cooldown     duration `toml:"cooldown"`

	// SignalSeed makes the per-tick generator selection reproducible when
	// non-zero; zero seeds from the clock.
	SignalSeed int64 `toml:"signal_seed"`
}

// ArbitrageConfig holds the triangular arbitrage parameters.
type ArbitrageConfig struct {
	Enabled      bool     `toml:"enabled"`
	Path         []string `toml:"path"`
	StartAmount  float64  `toml:"start_amount"`
	MinProfitBps float64  `toml:"min_profit_bps"`
}

// GasConfig holds the fee-asset reserve parameters.
type GasConfig struct {
	Token         string  `toml:"token"`
	MinReserve    float64 `toml:"min_reserve"`
	TopUpNotional float64 `toml:"top_up_notional"`
}

// LedgerConfig selects and parameterizes the position ledger backend.
type LedgerConfig struct {
	// Backend is "file" or "redis".
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// RedisConfig holds Redis connection parameters. Redis is required when the
// ledger backend is "redis"; otherwise it is optional and used for live
// price publishing when Addr is set.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
}

// PostgresConfig holds the optional trade-log database. An empty DSN
// disables it.
type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	MaxConns int    `toml:"max_conns"`
	MinConns int    `toml:"min_conns"`
}

// S3Config holds the optional archive target. Disabled unless Enabled.
type S3Config struct {
	Enabled        bool     `toml:"enabled"`
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	ForcePathStyle bool     `toml:"force_path_style"`
	Interval       duration `toml:"interval"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML can decode strings like "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Gswap: GswapConfig{
			APIHost:    "https://dex-backend-prod1.defi.gala.com",
			BundleHost: "https://bundle-backend-prod1.defi.gala.com",
		},
		Trading: TradingConfig{
			BaseToken:         "GALA",
			QuoteToken:        "GUSDC",
			NotionalUSD:       1.0,
			SlippageBps:       100,
			MinProfitBps:      10,
			ProfitBufferBps:   10,
			EmaAlpha:          0.2,
			MomentumThreshold: 0.004,
			MeanRevThreshold:  0.012,
			FibLookback:       150,
			TickInterval:      duration{30 * time.Second},
			JitterMax:         duration{5 * time.Second},
			WaitTimeout:       duration{20 * time.Second},
			PollInterval:      duration{5 * time.Second},
			PollAttempts:      12,
			Cooldown:          duration{5 * time.Second},
		},
		Arbitrage: ArbitrageConfig{
			Enabled:      true,
			Path:         []string{"GUSDC", "GALA", "GWETH", "GUSDC"},
			StartAmount:  3.0,
			MinProfitBps: 30,
		},
		Gas: GasConfig{
			Token:         "GALA",
			MinReserve:    2.0,
			TopUpNotional: 1.0,
		},
		Ledger: LedgerConfig{
			Backend: "file",
			Path:    "ledger.json",
		},
		Redis: RedisConfig{
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			MaxConns: 5,
			MinConns: 1,
		},
		S3: S3Config{
			Region:   "us-east-1",
			Interval: duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"trade_confirmed", "trade_unconfirmed", "arb_executed", "gas_low", "error"},
		},
		Mode:     "trade",
		LogLevel: "info",
		DryRun:   true,
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade":   true,
	"monitor": true,
	"once":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found. A validation
// failure aborts startup before any tick runs.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, monitor, once)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet: the identity is always required; a signing credential is
	// required unless every submission is simulated.
	if c.Wallet.Address == "" {
		errs = append(errs, "wallet: address must not be empty")
	}
	if !c.DryRun {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set when dry_run is false")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
	}

	if c.Gswap.APIHost == "" {
		errs = append(errs, "gswap: api_host must not be empty")
	}

	if c.Trading.NotionalUSD <= 0 {
		errs = append(errs, "trading: notional_usd must be > 0")
	}
	if c.Trading.SlippageBps < 0 || c.Trading.SlippageBps >= 10000 {
		errs = append(errs, fmt.Sprintf("trading: slippage_bps must be in [0, 10000), got %d", c.Trading.SlippageBps))
	}
	if c.Trading.EmaAlpha <= 0 || c.Trading.EmaAlpha > 1 {
		errs = append(errs, fmt.Sprintf("trading: ema_alpha must be in (0, 1], got %g", c.Trading.EmaAlpha))
	}
	if c.Trading.MomentumThreshold <= 0 {
		errs = append(errs, "trading: momentum_threshold must be > 0")
	}
	if c.Trading.MeanRevThreshold <= c.Trading.MomentumThreshold {
		errs = append(errs, "trading: mean_rev_threshold must exceed momentum_threshold")
	}
	if c.Trading.FibLookback < 5 {
		errs = append(errs, "trading: fib_lookback must be >= 5")
	}
	if c.Trading.TickInterval.Duration <= 0 {
		errs = append(errs, "trading: tick_interval must be > 0")
	}

	if c.Arbitrage.Enabled {
		if len(c.Arbitrage.Path) != 4 {
			errs = append(errs, fmt.Sprintf("arbitrage: path must list exactly 4 assets, got %d", len(c.Arbitrage.Path)))
		} else if c.Arbitrage.Path[0] != c.Arbitrage.Path[3] {
			errs = append(errs, "arbitrage: path must start and end on the same asset")
		}
		if c.Arbitrage.StartAmount <= 0 {
			errs = append(errs, "arbitrage: start_amount must be > 0")
		}
	}

	if c.Gas.Token == "" {
		errs = append(errs, "gas: token must not be empty")
	}
	if c.Gas.MinReserve < 0 {
		errs = append(errs, "gas: min_reserve must be >= 0")
	}

	switch c.Ledger.Backend {
	case "file":
		if c.Ledger.Path == "" {
			errs = append(errs, "ledger: path must not be empty for the file backend")
		}
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "ledger: redis backend requires redis.addr")
		}
	default:
		errs = append(errs, fmt.Sprintf("ledger: unknown backend %q (valid: file, redis)", c.Ledger.Backend))
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
