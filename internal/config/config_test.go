package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossbook/paperbot/internal/domain"
)

const sampleTOML = `
mode = "arbitrage"
log_level = "debug"

[paper]
initial_balance = 5000.0
portfolio_file = "state/portfolio.json"
trades_file = "state/trades.json"

[arbitrage]
enabled = true
min_profit = 0.03
trade_size = 25.0
scan_interval = "15s"
dry_run = true

[[arbitrage.pairs]]
name = "BTC Above $90k"
polymarket_id = "123456"
kalshi_ticker = "KXBTC-T89999"
coin = "BTC"
timeframe = "daily"

[[arbitrage.pairs]]
name = "BTC Above $92k"
polymarket_id = "654321"
kalshi_ticker = "KXBTC-T91999"
coin = "BTC"
timeframe = "daily"
polymarket_no_id = "654322"

[redis]
enabled = true
addr = "redis:6379"
price_ttl = "2m"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "arbitrage", cfg.Mode)
	assert.Equal(t, 5000.0, cfg.Paper.InitialBalance)
	assert.Equal(t, 0.03, cfg.Arbitrage.MinProfit)
	assert.Equal(t, 15*time.Second, cfg.Arbitrage.ScanInterval.Duration)
	assert.True(t, cfg.Arbitrage.DryRun)

	// Untouched sections keep defaults.
	assert.Equal(t, "https://clob.polymarket.com", cfg.Polymarket.ClobHost)
	assert.Equal(t, 5*time.Minute, cfg.Arbitrage.DedupTTL.Duration)

	require.Len(t, cfg.Arbitrage.Pairs, 2)
	assert.Equal(t, "KXBTC-T89999", cfg.Arbitrage.Pairs[0].KalshiTicker)
	assert.Equal(t, "654322", cfg.Arbitrage.Pairs[1].PolymarketNoID)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.PriceTTL.Duration)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "monitor", cfg.Mode)
	assert.Equal(t, 1000.0, cfg.Paper.InitialBalance)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "mode = [unclosed"))
	assert.Error(t, err)
}

func TestEnvOverridesBeatFileValues(t *testing.T) {
	t.Setenv("PAPERBOT_MODE", "copytrade")
	t.Setenv("PAPERBOT_PAPER_INITIAL_BALANCE", "250")
	t.Setenv("PAPERBOT_ARBITRAGE_SCAN_INTERVAL", "45s")
	t.Setenv("PAPERBOT_COPYTRADE_TARGET_TRADERS", "0xaaa, 0xbbb")

	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, "copytrade", cfg.Mode)
	assert.Equal(t, 250.0, cfg.Paper.InitialBalance)
	assert.Equal(t, 45*time.Second, cfg.Arbitrage.ScanInterval.Duration)
	assert.Equal(t, []string{"0xaaa", "0xbbb"}, cfg.CopyTrade.TargetTraders)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "unknown mode",
			mutate: func(c *Config) { c.Mode = "yolo" },
			want:   "mode",
		},
		{
			name:   "zero balance",
			mutate: func(c *Config) { c.Paper.InitialBalance = 0 },
			want:   "initial_balance",
		},
		{
			name:   "missing portfolio file",
			mutate: func(c *Config) { c.Paper.PortfolioFile = "" },
			want:   "portfolio_file",
		},
		{
			name: "min profit out of range",
			mutate: func(c *Config) {
				c.Arbitrage.Enabled = true
				c.Arbitrage.MinProfit = 1.5
			},
			want: "min_profit",
		},
		{
			name: "zero dedup ttl",
			mutate: func(c *Config) {
				c.Arbitrage.Enabled = true
				c.Arbitrage.DedupTTL.Duration = 0
			},
			want: "dedup_ttl",
		},
		{
			name: "incomplete pair",
			mutate: func(c *Config) {
				c.Arbitrage.Enabled = true
				c.Arbitrage.Pairs = []domain.MatchedMarket{
					{PolymarketID: "id", KalshiTicker: "ticker"},
				}
			},
			want: "pairs[0]",
		},
		{
			name: "copytrade without traders",
			mutate: func(c *Config) {
				c.CopyTrade.Enabled = true
				c.CopyTrade.TargetTraders = nil
			},
			want: "target_traders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFeedTokensDerivedFromPairs(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML))
	require.NoError(t, err)

	tokens := cfg.FeedTokens()
	assert.Equal(t, map[string]string{
		"123456": "BTC Above $90k",
		"654321": "BTC Above $92k",
	}, tokens)
}
