package polymarket

import "strconv"

// BookLevel is one price level in a CLOB orderbook. The API encodes price and
// size as decimal strings.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// PriceFloat parses the level's price, returning 0 on malformed input.
func (l BookLevel) PriceFloat() float64 {
	f, err := strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return 0
	}
	return f
}

// Book is a CLOB orderbook snapshot for one token.
type Book struct {
	Market    string      `json:"market"`
	AssetID   string      `json:"asset_id"`
	Timestamp string      `json:"timestamp"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
}

// BestBid returns the highest bid price, or 0 when the bid side is empty.
func (b Book) BestBid() float64 {
	var best float64
	for _, l := range b.Bids {
		if p := l.PriceFloat(); p > best {
			best = p
		}
	}
	return best
}

// BestAsk returns the lowest ask price, or 0 when the ask side is empty.
func (b Book) BestAsk() float64 {
	var best float64
	for _, l := range b.Asks {
		p := l.PriceFloat()
		if p <= 0 {
			continue
		}
		if best == 0 || p < best {
			best = p
		}
	}
	return best
}

// Activity is one trade event from the Polymarket data API, used by the copy
// trader to mirror target wallets.
type Activity struct {
	ProxyWallet     string  `json:"proxyWallet"`
	Timestamp       int64   `json:"timestamp"` // Unix milliseconds
	ConditionID     string  `json:"conditionId"`
	Type            string  `json:"type"`
	Size            float64 `json:"size"`
	USDCSize        float64 `json:"usdcSize"`
	TransactionHash string  `json:"transactionHash"`
	Price           float64 `json:"price"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"` // "BUY" or "SELL"
	OutcomeIndex    int     `json:"outcomeIndex"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	EventSlug       string  `json:"eventSlug"`
	Outcome         string  `json:"outcome"`
}

// WalletPosition is one holding of a tracked wallet from the data API.
type WalletPosition struct {
	ProxyWallet  string  `json:"proxyWallet"`
	Asset        string  `json:"asset"`
	ConditionID  string  `json:"conditionId"`
	Size         float64 `json:"size"`
	AvgPrice     float64 `json:"avgPrice"`
	InitialValue float64 `json:"initialValue"`
	CurrentValue float64 `json:"currentValue"`
	CashPnL      float64 `json:"cashPnl"`
	PercentPnL   float64 `json:"percentPnl"`
	CurPrice     float64 `json:"curPrice"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	EventSlug    string  `json:"eventSlug"`
	Outcome      string  `json:"outcome"`
	OutcomeIndex int     `json:"outcomeIndex"`
}
