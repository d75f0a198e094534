package domain

// Position is one open holding in one binary-outcome market, tracked at the
// size-weighted average entry price. Prices are probabilities in [0, 1].
type Position struct {
	Market        string  `json:"market"`
	Coin          string  `json:"coin"`
	Platform      string  `json:"platform"`
	Size          float64 `json:"size"`      // shares held
	AvgPrice      float64 `json:"avg_price"` // average entry price
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// UpdatePnL sets the current mark price and recomputes the unrealized PnL.
// UnrealizedPnL is always derived here, never mutated independently.
func (p *Position) UpdatePnL(currentPrice float64) {
	p.CurrentPrice = currentPrice
	p.UnrealizedPnL = p.Size * (currentPrice - p.AvgPrice)
}

// CurrentValue is the mark-to-market value of the position.
func (p *Position) CurrentValue() float64 {
	return p.Size * p.CurrentPrice
}

// InitialValue is the cost basis of the position.
func (p *Position) InitialValue() float64 {
	return p.Size * p.AvgPrice
}
