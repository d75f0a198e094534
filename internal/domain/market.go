package domain

// MatchedMarket is a pair of equivalent binary-outcome markets on the two
// venues: a Polymarket token ID and a Kalshi ticker for the same outcome.
type MatchedMarket struct {
	Name         string `toml:"name" json:"name"`
	PolymarketID string `toml:"polymarket_id" json:"polymarket_id"`
	KalshiTicker string `toml:"kalshi_ticker" json:"kalshi_ticker"`
	Coin         string `toml:"coin" json:"coin"`
	Timeframe    string `toml:"timeframe" json:"timeframe"`

	// PolymarketNoID is the token ID of the NO outcome, when configured.
	// Enables the YES/NO settlement-lock checks.
	PolymarketNoID string `toml:"polymarket_no_id,omitempty" json:"polymarket_no_id,omitempty"`
}

// Venue labels used on positions and trade records.
const (
	VenuePolymarket = "polymarket"
	VenueKalshi     = "kalshi"
)
