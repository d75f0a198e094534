// Package paper implements the paper-trading ledger: a virtual portfolio with
// solvency checks, a persistent trade log, and the engine facade coordinating
// the two. All money amounts are USD, all prices are binary-outcome
// probabilities in [0, 1].
package paper

import (
	"fmt"

	"github.com/crossbook/paperbot/internal/domain"
)

// Portfolio owns the cash balance, the open positions keyed by market ID, and
// the cumulative realized PnL. Every mutation writes a full snapshot through
// the configured store; persistence failures are returned to the caller after
// the in-memory mutation has applied, never silently dropped.
//
// Portfolio is not safe for concurrent use. The Engine serializes access.
type Portfolio struct {
	initialBalance float64
	cashBalance    float64
	positions      map[string]*domain.Position
	realizedPnL    float64
	store          domain.PortfolioStore
}

// NewPortfolio creates a fresh portfolio with the given starting balance,
// persisted through store.
func NewPortfolio(store domain.PortfolioStore, initialBalance float64) *Portfolio {
	return &Portfolio{
		initialBalance: initialBalance,
		cashBalance:    initialBalance,
		positions:      make(map[string]*domain.Position),
		store:          store,
	}
}

// LoadOrCreate restores a portfolio from the store if a parseable snapshot
// exists, otherwise creates a fresh one with defaultBalance and writes it
// immediately. A corrupt snapshot falls back to fresh state; the load error is
// returned alongside the usable portfolio so the caller can log the data loss.
func LoadOrCreate(store domain.PortfolioStore, defaultBalance float64) (*Portfolio, error) {
	snap, ok, err := store.LoadPortfolio()
	if ok && err == nil {
		p := &Portfolio{
			initialBalance: snap.InitialBalance,
			cashBalance:    snap.CashBalance,
			positions:      make(map[string]*domain.Position, len(snap.Positions)),
			realizedPnL:    snap.RealizedPnL,
			store:          store,
		}
		for market, pos := range snap.Positions {
			p.positions[market] = &domain.Position{
				Market:        pos.Market,
				Coin:          pos.Coin,
				Platform:      pos.Platform,
				Size:          pos.Size,
				AvgPrice:      pos.AvgPrice,
				CurrentPrice:  pos.CurrentPrice,
				UnrealizedPnL: pos.UnrealizedPnL,
			}
		}
		return p, nil
	}

	p := NewPortfolio(store, defaultBalance)
	if saveErr := p.save(); saveErr != nil {
		return p, saveErr
	}
	return p, err
}

// OpenPosition debits sizeUSD from cash and opens (or adds to) the position in
// market. Adding to an existing position blends the average entry price by USD
// weight. It fails with domain.ErrInsufficientBalance before any mutation when
// sizeUSD exceeds the cash balance.
func (p *Portfolio) OpenPosition(market, coin, platform string, sizeUSD, price float64) error {
	if sizeUSD > p.cashBalance {
		return &domain.InsufficientBalanceError{Available: p.cashBalance, Needed: sizeUSD}
	}

	p.cashBalance -= sizeUSD
	shares := sizeUSD / price

	if pos, exists := p.positions[market]; exists {
		totalShares := pos.Size + shares
		totalValue := pos.Size*pos.AvgPrice + sizeUSD
		pos.AvgPrice = totalValue / totalShares
		pos.Size = totalShares
	} else {
		p.positions[market] = &domain.Position{
			Market:       market,
			Coin:         coin,
			Platform:     platform,
			Size:         shares,
			AvgPrice:     price,
			CurrentPrice: price,
		}
	}

	return p.save()
}

// ClosePosition liquidates the full position in market at exitPrice, credits
// the exit value back to cash, and adds the realized PnL. It returns the PnL
// of the close. Partial closes are not supported.
func (p *Portfolio) ClosePosition(market string, exitPrice float64) (float64, error) {
	pos, exists := p.positions[market]
	if !exists {
		return 0, &domain.PositionNotFoundError{Market: market}
	}
	delete(p.positions, market)

	pnl := pos.Size * (exitPrice - pos.AvgPrice)
	p.cashBalance += pos.Size * exitPrice
	p.realizedPnL += pnl

	return pnl, p.save()
}

// UpdatePrices re-marks every position whose market appears in prices, then
// persists once. Markets absent from the map keep their last mark.
func (p *Portfolio) UpdatePrices(prices map[string]float64) error {
	for market, pos := range p.positions {
		if price, ok := prices[market]; ok {
			pos.UpdatePnL(price)
		}
	}
	return p.save()
}

// TotalValue is cash plus the mark-to-market value of all open positions.
func (p *Portfolio) TotalValue() float64 {
	total := p.cashBalance
	for _, pos := range p.positions {
		total += pos.CurrentValue()
	}
	return total
}

// UnrealizedPnL sums the unrealized PnL over all open positions.
func (p *Portfolio) UnrealizedPnL() float64 {
	var total float64
	for _, pos := range p.positions {
		total += pos.UnrealizedPnL
	}
	return total
}

// TotalPnL is realized plus unrealized PnL.
func (p *Portfolio) TotalPnL() float64 {
	return p.realizedPnL + p.UnrealizedPnL()
}

// PnLPercent is the total PnL as a percentage of the initial balance, or 0
// when the initial balance is 0.
func (p *Portfolio) PnLPercent() float64 {
	if p.initialBalance == 0 {
		return 0
	}
	return p.TotalPnL() / p.initialBalance * 100
}

// PositionCount is the number of open positions.
func (p *Portfolio) PositionCount() int {
	return len(p.positions)
}

// CashBalance returns the current cash balance.
func (p *Portfolio) CashBalance() float64 { return p.cashBalance }

// InitialBalance returns the immutable starting balance.
func (p *Portfolio) InitialBalance() float64 { return p.initialBalance }

// RealizedPnL returns the cumulative realized PnL.
func (p *Portfolio) RealizedPnL() float64 { return p.realizedPnL }

// Position returns a copy of the open position for market, if any.
func (p *Portfolio) Position(market string) (domain.Position, bool) {
	pos, ok := p.positions[market]
	if !ok {
		return domain.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions keyed by market.
func (p *Portfolio) Positions() map[string]domain.Position {
	out := make(map[string]domain.Position, len(p.positions))
	for market, pos := range p.positions {
		out[market] = *pos
	}
	return out
}

// Reset restores the initial cash balance, clears all positions, and zeroes
// the realized PnL. The trade log is untouched.
func (p *Portfolio) Reset() error {
	p.cashBalance = p.initialBalance
	p.positions = make(map[string]*domain.Position)
	p.realizedPnL = 0
	return p.save()
}

// Snapshot returns the current full state in its wire shape.
func (p *Portfolio) Snapshot() domain.PortfolioSnapshot {
	return domain.PortfolioSnapshot{
		InitialBalance: p.initialBalance,
		CashBalance:    p.cashBalance,
		Positions:      p.Positions(),
		RealizedPnL:    p.realizedPnL,
	}
}

func (p *Portfolio) save() error {
	if err := p.store.SavePortfolio(p.Snapshot()); err != nil {
		return fmt.Errorf("portfolio: save snapshot: %w", err)
	}
	return nil
}
