package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PAPERBOT_* environment variable overrides, and
// returns the final Config. An empty path skips the file and starts from
// defaults. The returned Config has NOT been validated; call
// Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env if present; missing is fine.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PAPERBOT_* environment variables and
// overwrites the corresponding fields when set. This lets operators inject
// secrets at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setFloat64(&cfg.Paper.InitialBalance, "PAPERBOT_PAPER_INITIAL_BALANCE")
	setStr(&cfg.Paper.PortfolioFile, "PAPERBOT_PAPER_PORTFOLIO_FILE")
	setStr(&cfg.Paper.TradesFile, "PAPERBOT_PAPER_TRADES_FILE")

	setStr(&cfg.Polymarket.ClobHost, "PAPERBOT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.DataHost, "PAPERBOT_POLYMARKET_DATA_HOST")
	setStr(&cfg.Polymarket.WsHost, "PAPERBOT_POLYMARKET_WS_HOST")

	setStr(&cfg.Kalshi.BaseURL, "PAPERBOT_KALSHI_BASE_URL")

	setBool(&cfg.Arbitrage.Enabled, "PAPERBOT_ARBITRAGE_ENABLED")
	setFloat64(&cfg.Arbitrage.MinProfit, "PAPERBOT_ARBITRAGE_MIN_PROFIT")
	setFloat64(&cfg.Arbitrage.TradeSize, "PAPERBOT_ARBITRAGE_TRADE_SIZE")
	setDuration(&cfg.Arbitrage.ScanInterval, "PAPERBOT_ARBITRAGE_SCAN_INTERVAL")
	setDuration(&cfg.Arbitrage.DedupTTL, "PAPERBOT_ARBITRAGE_DEDUP_TTL")
	setBool(&cfg.Arbitrage.AutoExecute, "PAPERBOT_ARBITRAGE_AUTO_EXECUTE")
	setBool(&cfg.Arbitrage.DryRun, "PAPERBOT_ARBITRAGE_DRY_RUN")

	setBool(&cfg.CopyTrade.Enabled, "PAPERBOT_COPYTRADE_ENABLED")
	setStringSlice(&cfg.CopyTrade.TargetTraders, "PAPERBOT_COPYTRADE_TARGET_TRADERS")
	setFloat64(&cfg.CopyTrade.MaxPositionSize, "PAPERBOT_COPYTRADE_MAX_POSITION_SIZE")
	setFloat64(&cfg.CopyTrade.MinTradeSize, "PAPERBOT_COPYTRADE_MIN_TRADE_SIZE")
	setDuration(&cfg.CopyTrade.ScanInterval, "PAPERBOT_COPYTRADE_SCAN_INTERVAL")
	setInt(&cfg.CopyTrade.ActivityLimit, "PAPERBOT_COPYTRADE_ACTIVITY_LIMIT")

	setBool(&cfg.Redis.Enabled, "PAPERBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "PAPERBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PAPERBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PAPERBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PAPERBOT_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "PAPERBOT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.PriceTTL, "PAPERBOT_REDIS_PRICE_TTL")

	setBool(&cfg.Postgres.Enabled, "PAPERBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "PAPERBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "PAPERBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PAPERBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PAPERBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PAPERBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PAPERBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PAPERBOT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PAPERBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PAPERBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PAPERBOT_POSTGRES_RUN_MIGRATIONS")

	setBool(&cfg.S3.Enabled, "PAPERBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PAPERBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PAPERBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "PAPERBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PAPERBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PAPERBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PAPERBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PAPERBOT_S3_FORCE_PATH_STYLE")

	setStr(&cfg.Notify.TelegramToken, "PAPERBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PAPERBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PAPERBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PAPERBOT_NOTIFY_EVENTS")

	setStr(&cfg.Mode, "PAPERBOT_MODE")
	setStr(&cfg.LogLevel, "PAPERBOT_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the variable is
// present and parses.

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
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) > 0 {
		*dst = cleaned
	}
}
