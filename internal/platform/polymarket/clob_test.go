package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBookAndBestPrices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book", r.URL.Path)
		assert.Equal(t, "tok-1", r.URL.Query().Get("token_id"))
		w.Write([]byte(`{
			"market": "0xcond",
			"asset_id": "tok-1",
			"bids": [{"price":"0.48","size":"100"},{"price":"0.50","size":"40"}],
			"asks": [{"price":"0.53","size":"60"},{"price":"0.52","size":"10"}]
		}`))
	}))
	defer srv.Close()

	c := NewClobClient(srv.URL)

	book, err := c.GetBook(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 0.50, book.BestBid())
	assert.Equal(t, 0.52, book.BestAsk())

	q, err := c.BestPrices(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 0.50, q.Bid)
	assert.Equal(t, 0.52, q.Ask)
}

func TestGetBookEmptySidesAreZero(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"bids":[],"asks":[]}`))
	}))
	defer srv.Close()

	q, err := NewClobClient(srv.URL).BestPrices(context.Background(), "tok")
	require.NoError(t, err)
	assert.Zero(t, q.Bid)
	assert.Zero(t, q.Ask)
}

func TestGetMidpointParsesStringPrice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/midpoint", r.URL.Path)
		w.Write([]byte(`{"mid":"0.515"}`))
	}))
	defer srv.Close()

	mid, err := NewClobClient(srv.URL).GetMidpoint(context.Background(), "tok")
	require.NoError(t, err)
	assert.InDelta(t, 0.515, mid, 1e-9)
}

func TestGetActivityFiltersToTrades(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activity", r.URL.Path)
		assert.Equal(t, "0xwallet", r.URL.Query().Get("user"))
		assert.Equal(t, "TRADE", r.URL.Query().Get("type"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{
			"transactionHash": "0xabc",
			"side": "BUY",
			"usdcSize": 120.5,
			"price": 0.44,
			"title": "BTC Above $90k",
			"timestamp": 1767225600000
		}]`))
	}))
	defer srv.Close()

	acts, err := NewDataClient(srv.URL).GetActivity(context.Background(), "0xwallet", 25)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "0xabc", acts[0].TransactionHash)
	assert.Equal(t, 120.5, acts[0].USDCSize)
	assert.Equal(t, time.UnixMilli(1767225600000).UTC(), time.UnixMilli(acts[0].Timestamp).UTC())
}

func TestPortfolioValueSumsCurrentValues(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		w.Write([]byte(`[
			{"currentValue": 120.0},
			{"currentValue": 80.5}
		]`))
	}))
	defer srv.Close()

	total, err := NewDataClient(srv.URL).PortfolioValue(context.Background(), "0xwallet")
	require.NoError(t, err)
	assert.InDelta(t, 200.5, total, 1e-9)
}

func TestBookEventMidFromWSPayload(t *testing.T) {
	t.Parallel()

	ev := BookEvent{
		AssetID: "tok-1",
		Bids:    []BookLevel{{Price: "0.48"}, {Price: "0.50"}},
		Asks:    []BookLevel{{Price: "0.53"}, {Price: "0.52"}},
	}
	assert.Equal(t, 0.50, ev.BestBid())
	assert.Equal(t, 0.52, ev.BestAsk())
}
