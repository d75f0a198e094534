package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	prices map[string]float64
	err    error

	mu    sync.Mutex
	asked []string
}

func (c *fakeCache) askedMarkets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.asked...)
}

func (c *fakeCache) SetPrice(ctx context.Context, marketID string, price float64, ts time.Time) error {
	if c.prices == nil {
		c.prices = map[string]float64{}
	}
	c.prices[marketID] = price
	return nil
}

func (c *fakeCache) GetPrice(ctx context.Context, marketID string) (float64, time.Time, error) {
	p, ok := c.prices[marketID]
	if !ok {
		return 0, time.Time{}, errors.New("not found")
	}
	return p, time.Now(), nil
}

func (c *fakeCache) GetPrices(ctx context.Context, marketIDs []string) (map[string]float64, error) {
	c.mu.Lock()
	c.asked = append(c.asked, marketIDs...)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := map[string]float64{}
	for _, id := range marketIDs {
		if p, ok := c.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type recordingSink struct {
	updates []map[string]float64
	err     error
}

func (s *recordingSink) UpdatePrices(ctx context.Context, prices map[string]float64) error {
	s.updates = append(s.updates, prices)
	return s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshPushesCachedMarksToSink(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{prices: map[string]float64{
		"BTC Above $90k": 0.61,
		"ETH Above $5k":  0.34,
	}}
	sink := &recordingSink{}
	r := NewPriceRefresher(cache, sink, []string{"BTC Above $90k", "ETH Above $5k", "SOL Above $300"}, time.Minute, discard())

	r.Refresh(context.Background())

	require.Len(t, sink.updates, 1)
	assert.Equal(t, map[string]float64{
		"BTC Above $90k": 0.61,
		"ETH Above $5k":  0.34,
	}, sink.updates[0])
	assert.ElementsMatch(t, []string{"BTC Above $90k", "ETH Above $5k", "SOL Above $300"}, cache.askedMarkets())
}

func TestRefreshSkipsSinkWhenCacheEmpty(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{}
	sink := &recordingSink{}
	r := NewPriceRefresher(cache, sink, []string{"BTC Above $90k"}, time.Minute, discard())

	r.Refresh(context.Background())

	assert.Empty(t, sink.updates)
}

func TestRefreshSwallowsCacheError(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{err: errors.New("connection refused")}
	sink := &recordingSink{}
	r := NewPriceRefresher(cache, sink, []string{"BTC Above $90k"}, time.Minute, discard())

	r.Refresh(context.Background())

	assert.Empty(t, sink.updates)
}

func TestRunRefreshesImmediatelyThenStops(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{prices: map[string]float64{"BTC Above $90k": 0.58}}
	sink := &recordingSink{}
	r := NewPriceRefresher(cache, sink, []string{"BTC Above $90k"}, time.Hour, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return len(cache.askedMarkets()) > 0 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop on cancel")
	}

	require.Len(t, sink.updates, 1)
	assert.Equal(t, 0.58, sink.updates[0]["BTC Above $90k"])
}

func TestRunWithNoMarketsReturnsImmediately(t *testing.T) {
	t.Parallel()

	r := NewPriceRefresher(&fakeCache{}, &recordingSink{}, nil, time.Hour, discard())
	require.NoError(t, r.Run(context.Background()))
}
