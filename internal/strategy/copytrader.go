package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crossbook/paperbot/internal/domain"
	"github.com/crossbook/paperbot/internal/paper"
	"github.com/crossbook/paperbot/internal/platform/polymarket"
)

// maxCopyAge is how far back a target trade may be before it is considered
// stale and skipped.
const maxCopyAge = time.Hour

// copyConfidence is recorded on mirrored trades. Copies carry no edge
// estimate of their own; the score reflects that.
const copyConfidence = 0.5

// ActivitySource provides wallet activity and valuations. The data API
// client implements this.
type ActivitySource interface {
	GetActivity(ctx context.Context, wallet string, limit int) ([]polymarket.Activity, error)
	PortfolioValue(ctx context.Context, wallet string) (float64, error)
}

// CopyConfig configures the copy trader.
type CopyConfig struct {
	// TargetTraders lists the wallet addresses to mirror.
	TargetTraders []string

	// MaxPositionSize caps the USD size of any single mirrored trade.
	MaxPositionSize float64

	// MinTradeSize filters dust trades on the target wallet.
	MinTradeSize float64

	// ScanInterval is the polling period for Run.
	ScanInterval time.Duration

	// ActivityLimit is how many recent activities to fetch per trader.
	ActivityLimit int

	// FallbackTraderValue is assumed when a trader's portfolio value
	// cannot be fetched, to keep the size ratio conservative.
	FallbackTraderValue float64
}

// CopyTrade is a target trade scaled to our portfolio.
type CopyTrade struct {
	TraderAddress string
	Market        string
	Asset         string
	Side          string // "BUY" or "SELL"
	OriginalSize  float64
	OurSize       float64
	Price         float64
}

// CopyTrader polls target wallets' trade activity and mirrors new trades on
// the paper ledger, scaled by the ratio of our portfolio value to theirs.
type CopyTrader struct {
	source ActivitySource
	engine *paper.Engine
	cfg    CopyConfig
	logger *slog.Logger

	mu        sync.Mutex
	processed map[string]struct{} // transaction hashes already mirrored
}

// NewCopyTrader creates a copy trader over the given activity source and
// paper engine.
func NewCopyTrader(source ActivitySource, engine *paper.Engine, cfg CopyConfig, logger *slog.Logger) *CopyTrader {
	if cfg.ActivityLimit <= 0 {
		cfg.ActivityLimit = 25
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 30 * time.Second
	}
	if cfg.FallbackTraderValue <= 0 {
		cfg.FallbackTraderValue = 100_000
	}
	return &CopyTrader{
		source:    source,
		engine:    engine,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "copy_trader")),
		processed: make(map[string]struct{}),
	}
}

// Scan fetches recent activity for every target trader and returns the new
// trades worth mirroring, sized for our portfolio. Each returned trade is
// marked processed so the next scan skips it.
func (c *CopyTrader) Scan(ctx context.Context) ([]CopyTrade, error) {
	ourValue := c.engine.Summary().TotalValue

	var out []CopyTrade
	for _, trader := range c.cfg.TargetTraders {
		activities, err := c.source.GetActivity(ctx, trader, c.cfg.ActivityLimit)
		if err != nil {
			return out, fmt.Errorf("strategy: scan %s: %w", trader, err)
		}

		traderValue, err := c.source.PortfolioValue(ctx, trader)
		if err != nil || traderValue <= 0 {
			traderValue = c.cfg.FallbackTraderValue
		}
		ratio := ourValue / traderValue

		for _, act := range activities {
			trade, ok := c.consider(act, trader, ratio)
			if !ok {
				continue
			}
			c.logger.InfoContext(ctx, "new trade to copy",
				slog.String("trader", shortAddr(trader)),
				slog.String("side", trade.Side),
				slog.String("market", trade.Market),
				slog.Float64("price", trade.Price),
				slog.Float64("original_usd", trade.OriginalSize),
				slog.Float64("our_usd", trade.OurSize))
			out = append(out, trade)
		}
	}
	return out, nil
}

// consider applies the dedup, size, and age filters and scales the trade.
func (c *CopyTrader) consider(act polymarket.Activity, trader string, ratio float64) (CopyTrade, bool) {
	if act.USDCSize < c.cfg.MinTradeSize {
		return CopyTrade{}, false
	}
	if time.Since(time.UnixMilli(act.Timestamp)) > maxCopyAge {
		return CopyTrade{}, false
	}

	c.mu.Lock()
	if _, seen := c.processed[act.TransactionHash]; seen {
		c.mu.Unlock()
		return CopyTrade{}, false
	}
	c.processed[act.TransactionHash] = struct{}{}
	c.mu.Unlock()

	ourSize := act.USDCSize * ratio
	if ourSize > c.cfg.MaxPositionSize {
		ourSize = c.cfg.MaxPositionSize
	}

	return CopyTrade{
		TraderAddress: trader,
		Market:        act.Title,
		Asset:         act.Asset,
		Side:          act.Side,
		OriginalSize:  act.USDCSize,
		OurSize:       ourSize,
		Price:         act.Price,
	}, true
}

// Apply mirrors one copy trade on the paper ledger. A SELL for a market we
// do not hold is skipped without error.
func (c *CopyTrader) Apply(ctx context.Context, trade CopyTrade) error {
	switch trade.Side {
	case "BUY":
		_, err := c.engine.Buy(ctx,
			trade.Market, "", "", domain.VenuePolymarket,
			trade.OurSize, trade.Price,
			domain.StrategyCopyTrade, copyConfidence)
		if err != nil {
			return fmt.Errorf("strategy: copy buy %s: %w", trade.Market, err)
		}
		return nil

	case "SELL":
		_, err := c.engine.Sell(ctx, trade.Market, trade.Price)
		if err != nil {
			if errors.Is(err, domain.ErrPositionNotFound) {
				c.logger.DebugContext(ctx, "no position to mirror sell",
					slog.String("market", trade.Market))
				return nil
			}
			return fmt.Errorf("strategy: copy sell %s: %w", trade.Market, err)
		}
		return nil

	default:
		return fmt.Errorf("strategy: copy %s: unknown side %q", trade.Market, trade.Side)
	}
}

// Run scans on the configured interval and applies every new trade until
// ctx is cancelled.
func (c *CopyTrader) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		trades, err := c.Scan(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "scan failed", slog.String("error", err.Error()))
			continue
		}
		for _, trade := range trades {
			if err := c.Apply(ctx, trade); err != nil {
				c.logger.WarnContext(ctx, "copy failed",
					slog.String("market", trade.Market),
					slog.String("error", err.Error()))
			}
		}
	}
}

func shortAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:10]
}
