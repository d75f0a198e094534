// Package polymarket provides read-only clients for the Polymarket CLOB and
// data APIs. Order placement and EIP-712 signing are deliberately out of
// scope; only public market-data endpoints are consumed.
package polymarket

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

// DefaultClobURL is the production CLOB API root.
const DefaultClobURL = "https://clob.polymarket.com"

// ClobClient is the REST client for CLOB public market data.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a CLOB client. An empty baseURL selects the
// production endpoint.
func NewClobClient(baseURL string) *ClobClient {
	if baseURL == "" {
		baseURL = DefaultClobURL
	}
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetBook returns the orderbook snapshot for the given token ID.
func (c *ClobClient) GetBook(ctx context.Context, tokenID string) (Book, error) {
	body, err := getJSON(ctx, c.httpClient, c.baseURL+"/book?token_id="+url.QueryEscape(tokenID))
	if err != nil {
		return Book{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var book Book
	if err := json.Unmarshal(body, &book); err != nil {
		return Book{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}
	return book, nil
}

// GetMidpoint returns the midpoint price for the given token ID.
func (c *ClobClient) GetMidpoint(ctx context.Context, tokenID string) (float64, error) {
	body, err := getJSON(ctx, c.httpClient, c.baseURL+"/midpoint?token_id="+url.QueryEscape(tokenID))
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get midpoint %s: %w", tokenID, err)
	}

	var resp struct {
		Mid string `json:"mid"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode midpoint: %w", err)
	}

	mid, err := parseFloat(resp.Mid)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: parse midpoint %q: %w", resp.Mid, err)
	}
	return mid, nil
}

// BestPrices returns the best bid/ask for the given token ID. A zero side
// means that side of the book is empty. Implements domain.PriceSource.
func (c *ClobClient) BestPrices(ctx context.Context, tokenID string) (domain.Quote, error) {
	book, err := c.GetBook(ctx, tokenID)
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{
		Bid: book.BestBid(),
		Ask: book.BestAsk(),
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
	return body, nil
}

func parseFloat(s string) (float64, error) {
	var f float64
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return 0, err
	}
	return f, nil
}
