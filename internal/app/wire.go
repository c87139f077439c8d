package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/mpetrov/gswapbot/internal/arbitrage"
	s3blob "github.com/mpetrov/gswapbot/internal/blob/s3"
	"github.com/mpetrov/gswapbot/internal/bot"
	rediscache "github.com/mpetrov/gswapbot/internal/cache/redis"
	"github.com/mpetrov/gswapbot/internal/config"
	"github.com/mpetrov/gswapbot/internal/crypto"
	"github.com/mpetrov/gswapbot/internal/domain"
	"github.com/mpetrov/gswapbot/internal/executor"
	"github.com/mpetrov/gswapbot/internal/gas"
	"github.com/mpetrov/gswapbot/internal/ledger"
	"github.com/mpetrov/gswapbot/internal/market"
	"github.com/mpetrov/gswapbot/internal/metrics"
	"github.com/mpetrov/gswapbot/internal/notify"
	"github.com/mpetrov/gswapbot/internal/platform/gswap"
	"github.com/mpetrov/gswapbot/internal/server/ws"
	"github.com/mpetrov/gswapbot/internal/signal"
	"github.com/mpetrov/gswapbot/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Dex          domain.Dex
	Ledger       *ledger.PositionLedger
	TradeLog     domain.TradeLogStore // nil unless Postgres is configured
	Orchestrator *bot.Orchestrator
	Metrics      *metrics.Metrics
	Notifier     *notify.Notifier
	WSHub        *ws.Hub
	Archiver     *s3blob.Archiver // nil unless S3 is enabled
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// Signing key. Dry runs never submit, so the signer is optional there.
	var signer *crypto.Signer
	if !cfg.DryRun {
		keyHex, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("wire: load signing key: %w", err)
		}
		signer, err = crypto.NewSigner(keyHex)
		if err != nil {
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
	}

	deps.Dex = gswap.NewClient(cfg.Gswap.APIHost, cfg.Gswap.BundleHost, signer)
	deps.Metrics = metrics.New()

	// Redis serves two optional roles: the ledger backend and the live
	// event cache. One client covers both.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { rdb.Close() })
	}

	var ledgerStore domain.LedgerStore
	switch cfg.Ledger.Backend {
	case "redis":
		if rdb == nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: ledger backend redis requires redis.addr")
		}
		ledgerStore = ledger.NewRedisStore(rdb)
	default:
		ledgerStore = ledger.NewFileStore(cfg.Ledger.Path)
	}

	deps.Ledger = ledger.New(ledgerStore,
		cfg.Trading.MinProfitBps, cfg.Trading.ProfitBufferBps, logger)
	if err := deps.Ledger.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: ledger: %w", err)
	}

	// Optional trade log.
	if cfg.Postgres.DSN != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)
		if err := pgClient.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrate: %w", err)
		}
		deps.TradeLog = postgres.NewTradeLogStore(pgClient.Pool())
	}

	// Notifications.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscord(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.New(logger, cfg.Notify.Events, senders...)

	if cfg.Server.Enabled {
		deps.WSHub = ws.NewHub(logger)
	}

	// Executor, guard, and the decision pipeline.
	exec := executor.New(deps.Dex, executor.Config{
		Wallet:      cfg.Wallet.Address,
		SlippageBps: cfg.Trading.SlippageBps,
		WaitTimeout: cfg.Trading.WaitTimeout.Duration,
		Polling: executor.PollingPolicy{
			Interval:    cfg.Trading.PollInterval.Duration,
			MaxAttempts: cfg.Trading.PollAttempts,
		},
		DryRun:   cfg.DryRun,
		Cooldown: cfg.Trading.Cooldown.Duration,
	}, deps.TradeLog, logger)

	guard := gas.NewGuard(gas.Config{
		GasToken:      cfg.Gas.Token,
		StableToken:   cfg.Trading.QuoteToken,
		MinReserve:    decimal.NewFromFloat(cfg.Gas.MinReserve),
		TopUpNotional: decimal.NewFromFloat(cfg.Gas.TopUpNotional),
	}, deps.Dex, exec, cfg.Wallet.Address, logger)

	history := market.NewHistory(cfg.Trading.EmaAlpha, cfg.Trading.FibLookback)
	policy := signal.NewRandomPolicy(cfg.Trading.SignalSeed)
	evaluator := arbitrage.NewEvaluator(deps.Dex, logger)

	var publishers bot.MultiPublisher
	if deps.WSHub != nil {
		publishers = append(publishers, deps.WSHub)
	}
	if rdb != nil {
		publishers = append(publishers, rediscache.NewPublisher(rdb, logger))
	}
	var events bot.EventPublisher
	if len(publishers) > 0 {
		events = publishers
	}
	deps.Orchestrator = bot.New(
		bot.Config{
			BaseToken:         cfg.Trading.BaseToken,
			QuoteToken:        cfg.Trading.QuoteToken,
			Notional:          decimal.NewFromFloat(cfg.Trading.NotionalUSD),
			MomentumThreshold: cfg.Trading.MomentumThreshold,
			MeanRevThreshold:  cfg.Trading.MeanRevThreshold,
			ArbEnabled:        cfg.Arbitrage.Enabled,
			ArbPath:           cfg.Arbitrage.Path,
			ArbStartAmount:    decimal.NewFromFloat(cfg.Arbitrage.StartAmount),
			ArbMinProfitBps:   cfg.Arbitrage.MinProfitBps,
			Mode:              cfg.Mode,
			DryRun:            cfg.DryRun,
		},
		deps.Dex, cfg.Wallet.Address, history, policy, evaluator,
		deps.Ledger, guard, exec, exec.Stats(),
		deps.Metrics, deps.Notifier, events, logger,
	)

	// Optional S3 archiver.
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client), deps.Ledger, deps.TradeLog, logger)
	}

	return deps, cleanup, nil
}
