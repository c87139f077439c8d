package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies GSWAPBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known GSWAPBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.Address, "GSWAPBOT_WALLET_ADDRESS")
	setStr(&cfg.Wallet.PrivateKey, "GSWAPBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "GSWAPBOT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "GSWAPBOT_WALLET_KEY_PASSWORD")

	// ── Gswap ──
	setStr(&cfg.Gswap.APIHost, "GSWAPBOT_GSWAP_API_HOST")
	setStr(&cfg.Gswap.BundleHost, "GSWAPBOT_GSWAP_BUNDLE_HOST")

	// ── Trading ──
	setStr(&cfg.Trading.BaseToken, "GSWAPBOT_TRADING_BASE_TOKEN")
	setStr(&cfg.Trading.QuoteToken, "GSWAPBOT_TRADING_QUOTE_TOKEN")
	setFloat64(&cfg.Trading.NotionalUSD, "GSWAPBOT_TRADING_NOTIONAL_USD")
	setInt64(&cfg.Trading.SlippageBps, "GSWAPBOT_TRADING_SLIPPAGE_BPS")
	setInt64(&cfg.Trading.MinProfitBps, "GSWAPBOT_TRADING_MIN_PROFIT_BPS")
	setInt64(&cfg.Trading.ProfitBufferBps, "GSWAPBOT_TRADING_PROFIT_BUFFER_BPS")
	setFloat64(&cfg.Trading.EmaAlpha, "GSWAPBOT_TRADING_EMA_ALPHA")
	setFloat64(&cfg.Trading.MomentumThreshold, "GSWAPBOT_TRADING_MOMENTUM_THRESHOLD")
	setFloat64(&cfg.Trading.MeanRevThreshold, "GSWAPBOT_TRADING_MEAN_REV_THRESHOLD")
	setInt(&cfg.Trading.FibLookback, "GSWAPBOT_TRADING_FIB_LOOKBACK")
	setDuration(&cfg.Trading.TickInterval, "GSWAPBOT_TRADING_TICK_INTERVAL")
	setDuration(&cfg.Trading.JitterMax, "GSWAPBOT_TRADING_JITTER_MAX")
	setDuration(&cfg.Trading.WaitTimeout, "GSWAPBOT_TRADING_WAIT_TIMEOUT")
	setDuration(&cfg.Trading.PollInterval, "GSWAPBOT_TRADING_POLL_INTERVAL")
	setInt(&cfg.Trading.PollAttempts, "GSWAPBOT_TRADING_POLL_ATTEMPTS")
	setDuration(&cfg.Trading.Cooldown, "GSWAPBOT_TRADING_COOLDOWN")
	setInt64(&cfg.Trading.SignalSeed, "GSWAPBOT_TRADING_SIGNAL_SEED")

	// ── Arbitrage ──
	setBool(&cfg.Arbitrage.Enabled, "GSWAPBOT_ARBITRAGE_ENABLED")
	setStringSlice(&cfg.Arbitrage.Path, "GSWAPBOT_ARBITRAGE_PATH")
	setFloat64(&cfg.Arbitrage.StartAmount, "GSWAPBOT_ARBITRAGE_START_AMOUNT")
	setFloat64(&cfg.Arbitrage.MinProfitBps, "GSWAPBOT_ARBITRAGE_MIN_PROFIT_BPS")

	// ── Gas ──
	setStr(&cfg.Gas.Token, "GSWAPBOT_GAS_TOKEN")
	setFloat64(&cfg.Gas.MinReserve, "GSWAPBOT_GAS_MIN_RESERVE")
	setFloat64(&cfg.Gas.TopUpNotional, "GSWAPBOT_GAS_TOP_UP_NOTIONAL")

	// ── Ledger ──
	setStr(&cfg.Ledger.Backend, "GSWAPBOT_LEDGER_BACKEND")
	setStr(&cfg.Ledger.Path, "GSWAPBOT_LEDGER_PATH")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "GSWAPBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "GSWAPBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "GSWAPBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "GSWAPBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "GSWAPBOT_REDIS_MAX_RETRIES")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "GSWAPBOT_POSTGRES_DSN")
	setInt(&cfg.Postgres.MaxConns, "GSWAPBOT_POSTGRES_MAX_CONNS")
	setInt(&cfg.Postgres.MinConns, "GSWAPBOT_POSTGRES_MIN_CONNS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "GSWAPBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "GSWAPBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "GSWAPBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "GSWAPBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "GSWAPBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "GSWAPBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "GSWAPBOT_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.Interval, "GSWAPBOT_S3_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "GSWAPBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "GSWAPBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "GSWAPBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "GSWAPBOT_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "GSWAPBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "GSWAPBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "GSWAPBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "GSWAPBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "GSWAPBOT_MODE")
	setStr(&cfg.LogLevel, "GSWAPBOT_LOG_LEVEL")
	setBool(&cfg.DryRun, "GSWAPBOT_DRY_RUN")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
