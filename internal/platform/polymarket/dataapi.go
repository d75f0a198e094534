package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultDataURL is the production data API root.
const DefaultDataURL = "https://data-api.polymarket.com"

// DataClient is the REST client for the Polymarket data API, which exposes
// per-wallet trade activity and positions. The copy trader uses it to watch
// target wallets.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataClient creates a data API client. An empty baseURL selects the
// production endpoint.
func NewDataClient(baseURL string) *DataClient {
	if baseURL == "" {
		baseURL = DefaultDataURL
	}
	return &DataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetActivity returns the most recent trade activity for a wallet, newest
// first.
func (c *DataClient) GetActivity(ctx context.Context, wallet string, limit int) ([]Activity, error) {
	params := url.Values{}
	params.Set("user", wallet)
	params.Set("type", "TRADE")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := getJSON(ctx, c.httpClient, c.baseURL+"/activity?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get activity %s: %w", wallet, err)
	}

	var activities []Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode activity: %w", err)
	}
	return activities, nil
}

// GetPositions returns the current holdings of a wallet.
func (c *DataClient) GetPositions(ctx context.Context, wallet string) ([]WalletPosition, error) {
	params := url.Values{}
	params.Set("user", wallet)

	body, err := getJSON(ctx, c.httpClient, c.baseURL+"/positions?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get positions %s: %w", wallet, err)
	}

	var positions []WalletPosition
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode positions: %w", err)
	}
	return positions, nil
}

// PortfolioValue sums the current value of all the wallet's holdings.
func (c *DataClient) PortfolioValue(ctx context.Context, wallet string) (float64, error) {
	positions, err := c.GetPositions(ctx, wallet)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range positions {
		total += p.CurrentValue
	}
	return total, nil
}
