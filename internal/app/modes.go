package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crossbook/paperbot/internal/domain"
	"github.com/crossbook/paperbot/internal/feed"
)

// archiveInterval is how often closed trades are pushed to the archive
// stores in the long-running modes.
const archiveInterval = time.Hour

// refreshInterval is how often cached marks are pulled back into the ledger
// when the redis price cache is wired.
const refreshInterval = 30 * time.Second

// ArbitrageMode runs the detection loop and, when auto-execute is on,
// records opportunities on the paper ledger.
func (a *App) ArbitrageMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting arbitrage mode",
		slog.Int("pairs", deps.Registry.Len()),
		slog.Bool("auto_execute", a.cfg.Arbitrage.AutoExecute),
		slog.Bool("dry_run", a.cfg.Arbitrage.DryRun))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Dedup.Run(ctx)
		return nil
	})
	g.Go(func() error { return a.detectLoop(ctx, deps) })
	a.startFeed(ctx, g, deps)
	a.startPriceRefresh(ctx, g, deps)
	a.startArchive(ctx, g, deps)

	return g.Wait()
}

// CopyTradeMode mirrors target wallets onto the paper ledger.
func (a *App) CopyTradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting copytrade mode",
		slog.Int("traders", len(a.cfg.CopyTrade.TargetTraders)))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return deps.CopyTrader.Run(ctx) })
	a.startArchive(ctx, g, deps)
	return g.Wait()
}

// MonitorMode keeps the ledger marked to market and periodically logs the
// portfolio summary without trading.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startFeed(ctx, g, deps)
	a.startPriceRefresh(ctx, g, deps)
	g.Go(func() error { return a.summaryLoop(ctx, deps) })
	return g.Wait()
}

// FullMode runs arbitrage detection, copy trading, the price feed, and the
// archive loop together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Dedup.Run(ctx)
		return nil
	})
	g.Go(func() error { return a.detectLoop(ctx, deps) })
	if a.cfg.CopyTrade.Enabled {
		g.Go(func() error { return deps.CopyTrader.Run(ctx) })
	}
	a.startFeed(ctx, g, deps)
	a.startPriceRefresh(ctx, g, deps)
	a.startArchive(ctx, g, deps)
	g.Go(func() error { return a.summaryLoop(ctx, deps) })

	return g.Wait()
}

// Paper executes a one-shot ledger command: buy, sell, summary, or reset.
func (a *App) Paper(ctx context.Context, args []string) error {
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	defer cleanup()

	if len(args) == 0 {
		return errors.New("app: paper mode needs a command: buy|sell|summary|reset")
	}

	switch args[0] {
	case "buy":
		// paper buy <market> <size_usd> <price>
		if len(args) != 4 {
			return errors.New("app: usage: paper buy <market> <size_usd> <price>")
		}
		size, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("app: parse size: %w", err)
		}
		price, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("app: parse price: %w", err)
		}
		tradeID, err := deps.Engine.Buy(ctx, args[1], "", "", domain.VenuePolymarket,
			size, price, domain.StrategyManual, 1)
		if err != nil {
			return err
		}
		a.logger.InfoContext(ctx, "bought", slog.String("trade_id", tradeID))
		return nil

	case "sell":
		// paper sell <market> <price>
		if len(args) != 3 {
			return errors.New("app: usage: paper sell <market> <price>")
		}
		price, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("app: parse price: %w", err)
		}
		res, err := deps.Engine.Sell(ctx, args[1], price)
		if err != nil {
			return err
		}
		a.logger.InfoContext(ctx, "sold",
			slog.Float64("pnl", res.PnL),
			slog.Bool("record_closed", res.RecordClosed))
		return nil

	case "summary":
		a.logSummary(ctx, deps)
		return nil

	case "reset":
		if err := deps.Engine.Reset(ctx); err != nil {
			return err
		}
		a.logger.InfoContext(ctx, "ledger reset",
			slog.Float64("balance", deps.Engine.CashBalance()))
		return nil

	default:
		return fmt.Errorf("app: unknown paper command %q", args[0])
	}
}

// detectLoop runs the detector on the scan interval and hands opportunities
// to the paper executor when auto-execute is on.
func (a *App) detectLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(a.cfg.Arbitrage.ScanInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		for _, opp := range deps.Detector.CheckAll(ctx) {
			if err := deps.Executor.Execute(ctx, opp); err != nil {
				if errors.Is(err, domain.ErrBreakerTripped) {
					a.logger.WarnContext(ctx, "trading halted", slog.String("error", err.Error()))
					continue
				}
				a.logger.WarnContext(ctx, "execution failed",
					slog.String("pair", opp.Pair.Name),
					slog.String("error", err.Error()))
			}
		}
	}
}

// startFeed launches the websocket price feed when pairs are configured.
func (a *App) startFeed(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	tokens := a.cfg.FeedTokens()
	if len(tokens) == 0 {
		return
	}
	f := feed.NewPolymarketFeed(a.cfg.Polymarket.WsHost, tokens, deps.PriceCache, deps.Engine, a.logger)
	g.Go(func() error { return f.Run(ctx) })
}

// startPriceRefresh launches the cache-to-ledger mark refresher when the
// price cache is wired. The first refresh restores marks from before the
// last restart.
func (a *App) startPriceRefresh(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.PriceCache == nil {
		return
	}
	pairs := deps.Registry.All()
	markets := make([]string, 0, len(pairs))
	for _, p := range pairs {
		markets = append(markets, p.Name)
	}
	r := feed.NewPriceRefresher(deps.PriceCache, deps.Engine, markets, refreshInterval, a.logger)
	g.Go(func() error { return r.Run(ctx) })
}

// startArchive launches the periodic trade archiving loop when an archive
// store is wired.
func (a *App) startArchive(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.TradeArchive == nil {
		return
	}
	g.Go(func() error {
		ticker := time.NewTicker(archiveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}

			closed := deps.Engine.ClosedTrades()
			if len(closed) > 0 {
				if err := deps.TradeArchive.InsertBatch(ctx, closed); err != nil {
					a.logger.WarnContext(ctx, "trade archive insert failed",
						slog.String("error", err.Error()))
					continue
				}
			}
			if deps.Archiver != nil {
				n, err := deps.Archiver.ArchiveTrades(ctx, time.Now().UTC())
				if err != nil {
					a.logger.WarnContext(ctx, "blob archive failed",
						slog.String("error", err.Error()))
				} else if n > 0 {
					a.logger.InfoContext(ctx, "trades archived to blob storage",
						slog.Int64("count", n))
				}
			}
		}
	})
}

// summaryLoop logs the portfolio summary once a minute.
func (a *App) summaryLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.logSummary(ctx, deps)
		}
	}
}

func (a *App) logSummary(ctx context.Context, deps *Dependencies) {
	s := deps.Engine.Summary()
	a.logger.InfoContext(ctx, "portfolio summary",
		slog.Float64("total_value", s.TotalValue),
		slog.Float64("cash", s.CashBalance),
		slog.Int("positions", s.PositionCount),
		slog.Float64("realized_pnl", s.RealizedPnL),
		slog.Float64("unrealized_pnl", s.UnrealizedPnL),
		slog.Float64("total_pnl", s.TotalPnL),
		slog.Float64("pnl_pct", s.PnLPercent),
		slog.Float64("win_rate", s.WinRate),
		slog.Int("wins", s.Wins),
		slog.Int("closed_trades", s.TotalTrades))
}
