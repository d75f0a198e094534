package kalshi

import "encoding/json"

// Market represents a market as returned by the Kalshi REST API. Prices are
// in cents (0-100).
type Market struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Status         string  `json:"status"` // "open", "closed", "settled"
	YesBid         float64 `json:"yes_bid"`
	YesAsk         float64 `json:"yes_ask"`
	NoBid          float64 `json:"no_bid"`
	NoAsk          float64 `json:"no_ask"`
	LastPrice      float64 `json:"last_price"`
	Volume         int64   `json:"volume"`
	Volume24H      int64   `json:"volume_24h"`
	OpenInterest   int64   `json:"open_interest"`
	ExpirationTime string  `json:"expiration_time"`
	Category       string  `json:"category"`
	Result         string  `json:"result"` // "yes", "no", "" (unsettled)
	OpenTime       string  `json:"open_time"`
	CloseTime      string  `json:"close_time"`
}

// PriceLevel is one price/quantity level in a Kalshi orderbook, encoded by the
// API as a two-element array [price_cents, quantity].
type PriceLevel struct {
	Price    float64
	Quantity float64
}

// UnmarshalJSON decodes the [price, quantity] array form.
func (p *PriceLevel) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	p.Price = pair[0]
	p.Quantity = pair[1]
	return nil
}

// Orderbook represents the orderbook for a Kalshi market. Both sides list
// resting bids; the YES ask is implied by 100 minus the best NO bid.
type Orderbook struct {
	YesBids []PriceLevel `json:"yes"`
	NoBids  []PriceLevel `json:"no"`
}
