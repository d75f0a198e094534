package kalshi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMarketDecodesEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/KXBTC-T89999", r.URL.Path)
		w.Write([]byte(`{"market":{"ticker":"KXBTC-T89999","status":"open","yes_bid":43,"yes_ask":45,"no_bid":55,"no_ask":57}}`))
	}))
	defer srv.Close()

	m, err := NewClient(srv.URL).GetMarket(context.Background(), "KXBTC-T89999")
	require.NoError(t, err)
	assert.Equal(t, "KXBTC-T89999", m.Ticker)
	assert.Equal(t, 43.0, m.YesBid)
	assert.Equal(t, 57.0, m.NoAsk)
}

func TestGetMarketsPaginates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{"markets":[{"ticker":"A"},{"ticker":"B"}],"cursor":"next"}`))
	}))
	defer srv.Close()

	markets, cursor, err := NewClient(srv.URL).GetMarkets(context.Background(), 25, "abc")
	require.NoError(t, err)
	assert.Len(t, markets, 2)
	assert.Equal(t, "next", cursor)
}

func TestGetOrderbookDecodesLevelArrays(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/KXBTC-T89999/orderbook", r.URL.Path)
		w.Write([]byte(`{"orderbook":{"yes":[[43,100],[42,250]],"no":[[55,80]]}}`))
	}))
	defer srv.Close()

	ob, err := NewClient(srv.URL).GetOrderbook(context.Background(), "KXBTC-T89999")
	require.NoError(t, err)
	require.Len(t, ob.YesBids, 2)
	assert.Equal(t, 43.0, ob.YesBids[0].Price)
	assert.Equal(t, 100.0, ob.YesBids[0].Quantity)
	require.Len(t, ob.NoBids, 1)
	assert.Equal(t, 55.0, ob.NoBids[0].Price)
}

func TestBestPricesConvertsCents(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"market":{"ticker":"T","yes_bid":43,"yes_ask":45,"no_bid":55,"no_ask":57}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	q, err := c.BestPrices(context.Background(), "T")
	require.NoError(t, err)
	assert.InDelta(t, 0.43, q.Bid, 1e-9)
	assert.InDelta(t, 0.45, q.Ask, 1e-9)

	yes, no, err := c.YesNoPrices(context.Background(), "T")
	require.NoError(t, err)
	assert.InDelta(t, 0.45, yes.Ask, 1e-9)
	assert.InDelta(t, 0.57, no.Ask, 1e-9)
}

func TestGetMarketSurfacesHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetMarket(context.Background(), "MISSING")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
