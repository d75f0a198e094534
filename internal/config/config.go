// Package config defines the top-level configuration for the paper trading
// bot and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/crossbook/paperbot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PAPERBOT_* environment
// variables.
type Config struct {
	Paper      PaperConfig      `toml:"paper"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	CopyTrade  CopyTradeConfig  `toml:"copytrade"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PaperConfig holds the paper ledger parameters.
type PaperConfig struct {
	InitialBalance float64 `toml:"initial_balance"`
	PortfolioFile  string  `toml:"portfolio_file"`
	TradesFile     string  `toml:"trades_file"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	ClobHost string `toml:"clob_host"`
	DataHost string `toml:"data_host"`
	WsHost   string `toml:"ws_host"`
}

// KalshiConfig holds Kalshi API endpoints.
type KalshiConfig struct {
	BaseURL string `toml:"base_url"`
}

// ArbitrageConfig holds the detection loop parameters and the table of
// matched cross-venue pairs.
type ArbitrageConfig struct {
	Enabled      bool                   `toml:"enabled"`
	MinProfit    float64                `toml:"min_profit"`
	TradeSize    float64                `toml:"trade_size"`
	ScanInterval duration               `toml:"scan_interval"`
	DedupTTL     duration               `toml:"dedup_ttl"`
	AutoExecute  bool                   `toml:"auto_execute"`
	DryRun       bool                   `toml:"dry_run"`
	Pairs        []domain.MatchedMarket `toml:"pairs"`
}

// CopyTradeConfig holds the copy trading parameters.
type CopyTradeConfig struct {
	Enabled         bool     `toml:"enabled"`
	TargetTraders   []string `toml:"target_traders"`
	MaxPositionSize float64  `toml:"max_position_size"`
	MinTradeSize    float64  `toml:"min_trade_size"`
	ScanInterval    duration `toml:"scan_interval"`
	ActivityLimit   int      `toml:"activity_limit"`
}

// RedisConfig holds Redis connection parameters for the shared price cache.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	TLSEnabled bool     `toml:"tls_enabled"`
	PriceTTL   duration `toml:"price_ttl"`
}

// PostgresConfig holds connection parameters for the trade archive.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for trade archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration for human-readable TOML values ("30s", "5m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Paper: PaperConfig{
			InitialBalance: 1000,
			PortfolioFile:  "data/paper_portfolio.json",
			TradesFile:     "data/paper_trades.json",
		},
		Polymarket: PolymarketConfig{
			ClobHost: "https://clob.polymarket.com",
			DataHost: "https://data-api.polymarket.com",
			WsHost:   "wss://ws-subscriptions-clob.polymarket.com/ws/market",
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		Arbitrage: ArbitrageConfig{
			Enabled:      true,
			MinProfit:    0.02,
			TradeSize:    10,
			ScanInterval: duration{10 * time.Second},
			DedupTTL:     duration{5 * time.Minute},
			AutoExecute:  true,
			DryRun:       false,
		},
		CopyTrade: CopyTradeConfig{
			Enabled:         false,
			MaxPositionSize: 50,
			MinTradeSize:    5,
			ScanInterval:    duration{30 * time.Second},
			ActivityLimit:   25,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 20,
			PriceTTL: duration{time.Minute},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "paperbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "paperbot-archive",
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Events: []string{"arb_opportunity", "breaker"},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"paper":     true,
	"arbitrage": true,
	"copytrade": true,
	"monitor":   true,
	"full":      true,
}

// Validate checks the configuration for inconsistencies. It returns an
// error describing every problem found, one per line.
func (c *Config) Validate() error {
	var problems []string

	if !validModes[c.Mode] {
		problems = append(problems, fmt.Sprintf("mode %q is not one of paper|arbitrage|copytrade|monitor|full", c.Mode))
	}
	if c.Paper.InitialBalance <= 0 {
		problems = append(problems, "paper.initial_balance must be positive")
	}
	if c.Paper.PortfolioFile == "" {
		problems = append(problems, "paper.portfolio_file must be set")
	}
	if c.Paper.TradesFile == "" {
		problems = append(problems, "paper.trades_file must be set")
	}

	if c.Arbitrage.Enabled {
		if c.Arbitrage.MinProfit < 0 || c.Arbitrage.MinProfit >= 1 {
			problems = append(problems, "arbitrage.min_profit must be in [0, 1)")
		}
		if c.Arbitrage.TradeSize <= 0 {
			problems = append(problems, "arbitrage.trade_size must be positive")
		}
		if c.Arbitrage.ScanInterval.Duration <= 0 {
			problems = append(problems, "arbitrage.scan_interval must be positive")
		}
		if c.Arbitrage.DedupTTL.Duration <= 0 {
			problems = append(problems, "arbitrage.dedup_ttl must be positive")
		}
		for i, p := range c.Arbitrage.Pairs {
			if p.Name == "" || p.PolymarketID == "" || p.KalshiTicker == "" {
				problems = append(problems, fmt.Sprintf("arbitrage.pairs[%d] needs name, polymarket_id and kalshi_ticker", i))
			}
		}
	}

	if c.CopyTrade.Enabled {
		if len(c.CopyTrade.TargetTraders) == 0 {
			problems = append(problems, "copytrade.target_traders must list at least one wallet")
		}
		if c.CopyTrade.MaxPositionSize <= 0 {
			problems = append(problems, "copytrade.max_position_size must be positive")
		}
	}

	if c.Postgres.Enabled && c.Postgres.DSN == "" && c.Postgres.Host == "" {
		problems = append(problems, "postgres.dsn or postgres.host must be set when postgres is enabled")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		problems = append(problems, "s3.bucket must be set when s3 is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// FeedTokens derives the websocket subscription map (token ID -> market
// name) from the arbitrage pair table.
func (c *Config) FeedTokens() map[string]string {
	tokens := make(map[string]string, len(c.Arbitrage.Pairs))
	for _, p := range c.Arbitrage.Pairs {
		if p.PolymarketID != "" {
			tokens[p.PolymarketID] = p.Name
		}
	}
	return tokens
}
