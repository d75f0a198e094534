package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Side is the direction of a paper trade.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// TradeStatus is the lifecycle state of a trade record.
type TradeStatus string

const (
	TradeStatusOpen      TradeStatus = "Open"
	TradeStatusClosed    TradeStatus = "Closed"
	TradeStatusCancelled TradeStatus = "Cancelled"
)

// Strategy tags recorded on paper trades.
const (
	StrategyArbitrage = "arbitrage"
	StrategyCopyTrade = "copy_trade"
	StrategyManual    = "manual"
)

// TradeRecord is the audit-trail entry for one logical buy/sell lifecycle.
// ExitPrice and PnL are set together exactly once when the record closes and
// are never re-set afterwards.
type TradeRecord struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Market     string      `json:"market"`
	Coin       string      `json:"coin"`
	Timeframe  string      `json:"timeframe"`
	Platform   string      `json:"platform"`
	Side       Side        `json:"side"`
	Size       float64     `json:"size"` // USD notional
	EntryPrice float64     `json:"entry_price"`
	ExitPrice  *float64    `json:"exit_price"`
	PnL        *float64    `json:"pnl"`
	Status     TradeStatus `json:"status"`
	Strategy   string      `json:"strategy"`
	Confidence float64     `json:"confidence"`
	Notes      *string     `json:"notes"`
}

// NewTradeRecord creates an open trade record with a fresh unique ID and a UTC
// creation timestamp.
func NewTradeRecord(market, coin, timeframe, platform string, side Side, sizeUSD, entryPrice float64, strategy string, confidence float64) TradeRecord {
	return TradeRecord{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Market:     market,
		Coin:       coin,
		Timeframe:  timeframe,
		Platform:   platform,
		Side:       side,
		Size:       sizeUSD,
		EntryPrice: entryPrice,
		Status:     TradeStatusOpen,
		Strategy:   strategy,
		Confidence: confidence,
	}
}

// Close transitions the record Open -> Closed, setting ExitPrice and PnL
// together. For a Buy (YES side) pnl = size*(exit-entry); for a Sell (NO side)
// pnl = size*(entry-exit). Closing a record twice or with a non-finite exit
// price is rejected so a NaN can never reach the best/worst orderings.
func (t *TradeRecord) Close(exitPrice float64) error {
	if t.Status != TradeStatusOpen {
		return fmt.Errorf("trade %s: %w", t.ID, ErrTradeClosed)
	}
	if math.IsNaN(exitPrice) || math.IsInf(exitPrice, 0) {
		return fmt.Errorf("trade %s: exit price %v: %w", t.ID, exitPrice, ErrInvalidPrice)
	}

	var pnl float64
	switch t.Side {
	case SideBuy:
		pnl = t.Size * (exitPrice - t.EntryPrice)
	case SideSell:
		pnl = t.Size * (t.EntryPrice - exitPrice)
	}

	t.ExitPrice = &exitPrice
	t.PnL = &pnl
	t.Status = TradeStatusClosed
	return nil
}

// IsProfitable reports whether the record has a positive realized PnL.
func (t *TradeRecord) IsProfitable() bool {
	return t.PnL != nil && *t.PnL > 0
}
