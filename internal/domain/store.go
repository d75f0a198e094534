package domain

import (
	"context"
	"time"
)

// PortfolioSnapshot is the full serialized state of a portfolio at a point in
// time. It is the on-disk document shape for the portfolio file.
type PortfolioSnapshot struct {
	InitialBalance float64             `json:"initial_balance"`
	CashBalance    float64             `json:"cash_balance"`
	Positions      map[string]Position `json:"positions"`
	RealizedPnL    float64             `json:"realized_pnl"`
}

// PortfolioStore persists portfolio snapshots. Implementations must treat a
// missing snapshot as (ok=false, nil error) so callers can distinguish a fresh
// start from a failed read.
type PortfolioStore interface {
	SavePortfolio(snap PortfolioSnapshot) error
	LoadPortfolio() (snap PortfolioSnapshot, ok bool, err error)
}

// TradeLogStore persists the full ordered trade history.
type TradeLogStore interface {
	SaveTrades(trades []TradeRecord) error
	LoadTrades() (trades []TradeRecord, ok bool, err error)
}

// PriceCache provides fast access to the latest venue prices.
type PriceCache interface {
	SetPrice(ctx context.Context, marketID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, marketID string) (float64, time.Time, error)
	GetPrices(ctx context.Context, marketIDs []string) (map[string]float64, error)
}

// Quote is a venue's best bid/ask for one outcome, in probability terms.
// A zero Bid or Ask means that side of the book is empty.
type Quote struct {
	Bid float64
	Ask float64
}

// PriceSource fetches the current best prices for a market on one venue.
type PriceSource interface {
	BestPrices(ctx context.Context, marketID string) (Quote, error)
}

// TradeArchiveStore persists closed trade records to durable storage, separate
// from the flat-file trade log.
type TradeArchiveStore interface {
	InsertBatch(ctx context.Context, trades []TradeRecord) error
	ListBefore(ctx context.Context, cutoff time.Time) ([]TradeRecord, error)
	ListRecent(ctx context.Context, limit int) ([]TradeRecord, error)
}
