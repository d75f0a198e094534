package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crossbook/paperbot/internal/arbitrage"
	s3blob "github.com/crossbook/paperbot/internal/blob/s3"
	"github.com/crossbook/paperbot/internal/cache/redis"
	"github.com/crossbook/paperbot/internal/config"
	"github.com/crossbook/paperbot/internal/domain"
	"github.com/crossbook/paperbot/internal/executor"
	"github.com/crossbook/paperbot/internal/notify"
	"github.com/crossbook/paperbot/internal/paper"
	"github.com/crossbook/paperbot/internal/platform/kalshi"
	"github.com/crossbook/paperbot/internal/platform/polymarket"
	"github.com/crossbook/paperbot/internal/store/file"
	"github.com/crossbook/paperbot/internal/store/postgres"
	"github.com/crossbook/paperbot/internal/strategy"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Engine *paper.Engine

	Kalshi   *kalshi.Client
	Clob     *polymarket.ClobClient
	Data     *polymarket.DataClient

	Registry *arbitrage.Registry
	Detector *arbitrage.Detector
	Executor *arbitrage.PaperExecutor
	Dedup    *executor.Dedup
	Breaker  *executor.Breaker

	CopyTrader *strategy.CopyTrader

	// PriceCache is nil unless redis is enabled.
	PriceCache domain.PriceCache

	// TradeArchive is nil unless postgres is enabled.
	TradeArchive domain.TradeArchiveStore

	// Archiver is nil unless both postgres and s3 are enabled.
	Archiver *s3blob.Archiver

	Notifier *notify.Notifier
}

// Wire constructs the concrete dependency graph from the configuration and
// returns it with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// Paper ledger over the file store. A corrupt snapshot starts fresh;
	// the loss is logged rather than fatal.
	store := file.New(cfg.Paper.PortfolioFile, cfg.Paper.TradesFile)
	portfolio, err := paper.LoadOrCreate(store, cfg.Paper.InitialBalance)
	if err != nil {
		logger.Warn("portfolio state unreadable, starting fresh",
			slog.String("error", err.Error()))
	}
	tradeLog, err := paper.NewTradeLog(store)
	if err != nil {
		logger.Warn("trade history unreadable, starting empty",
			slog.String("error", err.Error()))
	}
	deps.Engine = paper.NewEngine(portfolio, tradeLog, logger)

	// Venue clients.
	deps.Kalshi = kalshi.NewClient(cfg.Kalshi.BaseURL)
	deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost)
	deps.Data = polymarket.NewDataClient(cfg.Polymarket.DataHost)

	// Notifications.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender("", cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// Arbitrage pipeline.
	deps.Registry = arbitrage.NewRegistry(cfg.Arbitrage.Pairs)
	deps.Detector = arbitrage.NewDetector(deps.Clob, deps.Kalshi, deps.Registry, cfg.Arbitrage.MinProfit, logger)
	deps.Dedup = executor.NewDedup(cfg.Arbitrage.DedupTTL.Duration)
	deps.Breaker = executor.NewBreaker(logger)
	deps.Executor = arbitrage.NewPaperExecutor(
		deps.Engine, deps.Dedup, deps.Breaker, deps.Notifier,
		cfg.Arbitrage.TradeSize, cfg.Arbitrage.DryRun || !cfg.Arbitrage.AutoExecute, logger)

	// Copy trader.
	deps.CopyTrader = strategy.NewCopyTrader(deps.Data, deps.Engine, strategy.CopyConfig{
		TargetTraders:   cfg.CopyTrade.TargetTraders,
		MaxPositionSize: cfg.CopyTrade.MaxPositionSize,
		MinTradeSize:    cfg.CopyTrade.MinTradeSize,
		ScanInterval:    cfg.CopyTrade.ScanInterval.Duration,
		ActivityLimit:   cfg.CopyTrade.ActivityLimit,
	}, logger)

	// Redis price cache.
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.PriceCache = redis.NewPriceCache(redisClient, cfg.Redis.PriceTTL.Duration)
	}

	// Postgres trade archive.
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.TradeArchive = postgres.NewTradeArchive(pgClient.Pool())
	}

	// S3 blob archiver, only meaningful with the postgres archive behind it.
	if cfg.S3.Enabled && deps.TradeArchive != nil {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.TradeArchive)
	}

	return deps, cleanup, nil
}
