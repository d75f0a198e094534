// Package kalshi is a read-only REST client for Kalshi public market data.
// Only unauthenticated endpoints are used; order placement and its RSA
// signature scheme are deliberately out of scope.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/crossbook/paperbot/internal/domain"
)

// DefaultBaseURL is the production Kalshi trade API root.
const DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

// Client is the REST client for Kalshi public market data.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Kalshi client for the given API root. An empty baseURL
// selects the production endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetMarkets returns a page of markets. cursor is the pagination token from a
// previous call; empty starts from the beginning.
func (c *Client) GetMarkets(ctx context.Context, limit int, cursor string) ([]Market, string, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := "/markets"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp struct {
		Markets []Market `json:"markets"`
		Cursor  string   `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode markets: %w", err)
	}
	return resp.Markets, resp.Cursor, nil
}

// GetMarket returns a single market by its ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (Market, error) {
	body, err := c.get(ctx, "/markets/"+url.PathEscape(ticker))
	if err != nil {
		return Market{}, fmt.Errorf("kalshi: get market %s: %w", ticker, err)
	}

	var resp struct {
		Market Market `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Market{}, fmt.Errorf("kalshi: decode market: %w", err)
	}
	return resp.Market, nil
}

// GetOrderbook returns the current orderbook for the given market ticker.
func (c *Client) GetOrderbook(ctx context.Context, ticker string) (Orderbook, error) {
	body, err := c.get(ctx, "/markets/"+url.PathEscape(ticker)+"/orderbook")
	if err != nil {
		return Orderbook{}, fmt.Errorf("kalshi: get orderbook %s: %w", ticker, err)
	}

	var resp struct {
		Orderbook Orderbook `json:"orderbook"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Orderbook{}, fmt.Errorf("kalshi: decode orderbook: %w", err)
	}
	return resp.Orderbook, nil
}

// BestPrices returns the YES best bid/ask for the given ticker, converted
// from cents to probability scale. A zero side means that side of the book is
// empty. Implements domain.PriceSource.
func (c *Client) BestPrices(ctx context.Context, ticker string) (domain.Quote, error) {
	market, err := c.GetMarket(ctx, ticker)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		Bid: market.YesBid / 100,
		Ask: market.YesAsk / 100,
	}, nil
}

// YesNoPrices returns best bid/ask for both outcomes of the given ticker on
// probability scale. The NO side is quoted independently on Kalshi, not
// derived from the YES complement.
func (c *Client) YesNoPrices(ctx context.Context, ticker string) (yes, no domain.Quote, err error) {
	market, err := c.GetMarket(ctx, ticker)
	if err != nil {
		return domain.Quote{}, domain.Quote{}, err
	}
	yes = domain.Quote{Bid: market.YesBid / 100, Ask: market.YesAsk / 100}
	no = domain.Quote{Bid: market.NoBid / 100, Ask: market.NoAsk / 100}
	return yes, no, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
