package paper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/crossbook/paperbot/internal/domain"
)

// Summary is a read-only aggregate view over the portfolio and trade log.
type Summary struct {
	TotalValue    float64
	CashBalance   float64
	PositionCount int
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64
	PnLPercent    float64
	WinRate       float64
	Wins          int
	TotalTrades   int
	BestTradePnL  *float64
	WorstTradePnL *float64
}

// SellResult is the outcome of a sell. RecordClosed is false when the
// portfolio position was liquidated but no matching open trade record was
// found in the log; the ledgers have diverged and the caller should treat the
// result as a partial success.
type SellResult struct {
	PnL          float64
	TradeID      string
	RecordClosed bool
}

// Engine coordinates the portfolio and the trade log: a buy opens a position
// and appends an open trade record under one logical flow; a sell liquidates
// the position and closes the matching record. Engine is the single
// mutual-exclusion boundary for all mutating callers (strategy loops, CLI),
// so one instance can be shared safely.
type Engine struct {
	mu        sync.Mutex
	portfolio *Portfolio
	log       *TradeLog
	logger    *slog.Logger
}

// NewEngine creates an engine over the given portfolio and trade log.
func NewEngine(portfolio *Portfolio, log *TradeLog, logger *slog.Logger) *Engine {
	return &Engine{
		portfolio: portfolio,
		log:       log,
		logger:    logger.With(slog.String("component", "paper_engine")),
	}
}

// Buy opens (or adds to) a paper position and appends an open trade record,
// returning the new record's ID. The solvency check runs before any log
// mutation, so a declined buy leaves the trade log untouched. A persistence
// failure after the balance was debited is logged and reported, but the
// in-memory state stays authoritative.
func (e *Engine) Buy(ctx context.Context, market, coin, timeframe, platform string, sizeUSD, price float64, strategy string, confidence float64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.portfolio.OpenPosition(market, coin, platform, sizeUSD, price); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			return "", err
		}
		// Position opened in memory but the snapshot write failed.
		e.logger.WarnContext(ctx, "portfolio persisted state diverged",
			slog.String("market", market),
			slog.String("error", err.Error()),
		)
	}

	trade := domain.NewTradeRecord(market, coin, timeframe, platform, domain.SideBuy, sizeUSD, price, strategy, confidence)
	if err := e.log.Add(trade); err != nil {
		e.logger.WarnContext(ctx, "trade log persisted state diverged",
			slog.String("trade_id", trade.ID),
			slog.String("error", err.Error()),
		)
	}

	e.logger.InfoContext(ctx, "paper buy",
		slog.String("trade_id", trade.ID),
		slog.String("market", market),
		slog.String("platform", platform),
		slog.Float64("size_usd", sizeUSD),
		slog.Float64("price", price),
		slog.String("strategy", strategy),
	)

	return trade.ID, nil
}

// Sell liquidates the full position in market at exitPrice and closes the
// first matching open trade record. When the portfolio close succeeds but no
// open record matches the market, the cash and PnL effects stand and the
// divergence is surfaced via SellResult.RecordClosed=false rather than an
// error.
func (e *Engine) Sell(ctx context.Context, market string, exitPrice float64) (SellResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pnl, err := e.portfolio.ClosePosition(market, exitPrice)
	if err != nil {
		if errors.Is(err, domain.ErrPositionNotFound) {
			return SellResult{}, err
		}
		e.logger.WarnContext(ctx, "portfolio persisted state diverged",
			slog.String("market", market),
			slog.String("error", err.Error()),
		)
	}

	res := SellResult{PnL: pnl}
	for _, t := range e.log.Open() {
		if t.Market == market {
			res.TradeID = t.ID
			break
		}
	}

	if res.TradeID == "" {
		e.logger.WarnContext(ctx, "no open trade record for sold market",
			slog.String("market", market),
			slog.Float64("exit_price", exitPrice),
		)
		return res, nil
	}

	closed, closeErr := e.log.CloseTrade(res.TradeID, exitPrice)
	if closeErr != nil {
		e.logger.WarnContext(ctx, "trade log persisted state diverged",
			slog.String("trade_id", res.TradeID),
			slog.String("error", closeErr.Error()),
		)
	}
	res.RecordClosed = closed

	e.logger.InfoContext(ctx, "paper sell",
		slog.String("trade_id", res.TradeID),
		slog.String("market", market),
		slog.Float64("exit_price", exitPrice),
		slog.Float64("pnl", pnl),
	)

	return res, nil
}

// UpdatePrices re-marks all open positions from the given market -> price map.
func (e *Engine) UpdatePrices(ctx context.Context, prices map[string]float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.portfolio.UpdatePrices(prices); err != nil {
		e.logger.WarnContext(ctx, "portfolio persisted state diverged",
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// Summary assembles the aggregate performance view. Pure composition of the
// two sub-components' queries; no independent state.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	rate, wins, closed := e.log.WinRate()

	s := Summary{
		TotalValue:    e.portfolio.TotalValue(),
		CashBalance:   e.portfolio.CashBalance(),
		PositionCount: e.portfolio.PositionCount(),
		RealizedPnL:   e.portfolio.RealizedPnL(),
		UnrealizedPnL: e.portfolio.UnrealizedPnL(),
		TotalPnL:      e.portfolio.TotalPnL(),
		PnLPercent:    e.portfolio.PnLPercent(),
		WinRate:       rate,
		Wins:          wins,
		TotalTrades:   closed,
	}
	if best, ok := e.log.BestTrade(); ok {
		s.BestTradePnL = best.PnL
	}
	if worst, ok := e.log.WorstTrade(); ok {
		s.WorstTradePnL = worst.PnL
	}
	return s
}

// OpenPositions returns copies of all open positions keyed by market.
func (e *Engine) OpenPositions() map[string]domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.portfolio.Positions()
}

// RecentTrades returns the last n trade records, newest first.
func (e *Engine) RecentTrades(n int) []domain.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Recent(n)
}

// ClosedTrades returns all closed trade records.
func (e *Engine) ClosedTrades() []domain.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Closed()
}

// HasPosition reports whether an open position exists for market.
func (e *Engine) HasPosition(market string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.portfolio.Position(market)
	return ok
}

// CashBalance returns the portfolio's current cash balance.
func (e *Engine) CashBalance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.portfolio.CashBalance()
}

// Reset restores the portfolio to its initial state. The trade log is kept so
// the audit history survives resets.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.portfolio.Reset(); err != nil {
		return fmt.Errorf("engine: reset portfolio: %w", err)
	}
	e.logger.InfoContext(ctx, "portfolio reset, trade history retained")
	return nil
}
