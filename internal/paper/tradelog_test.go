package paper_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossbook/paperbot/internal/domain"
	"github.com/crossbook/paperbot/internal/paper"
)

func newTradeLog(t *testing.T) (*paper.TradeLog, *memStore) {
	t.Helper()
	store := &memStore{}
	l, err := paper.NewTradeLog(store)
	require.NoError(t, err)
	return l, store
}

func openTrade(market string, sizeUSD, entry float64) domain.TradeRecord {
	return domain.NewTradeRecord(market, "BTC", "1h", "polymarket", domain.SideBuy, sizeUSD, entry, domain.StrategyManual, 0.8)
}

func TestTradeLogAddAndQuery(t *testing.T) {
	t.Parallel()
	l, _ := newTradeLog(t)

	a := openTrade("A", 100, 0.40)
	b := openTrade("B", 50, 0.50)
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Add(b))

	assert.Len(t, l.All(), 2)
	assert.Len(t, l.Open(), 2)
	assert.Empty(t, l.Closed())

	closed, err := l.CloseTrade(a.ID, 0.60)
	require.NoError(t, err)
	assert.True(t, closed)

	assert.Len(t, l.Open(), 1)
	require.Len(t, l.Closed(), 1)
	got := l.Closed()[0]
	assert.Equal(t, a.ID, got.ID)
	require.NotNil(t, got.PnL)
	assert.InDelta(t, 100*(0.60-0.40), *got.PnL, 1e-9)
	require.NotNil(t, got.ExitPrice)
	assert.InDelta(t, 0.60, *got.ExitPrice, 1e-9)
}

func TestCloseTradeUnknownID(t *testing.T) {
	t.Parallel()
	l, _ := newTradeLog(t)
	require.NoError(t, l.Add(openTrade("A", 100, 0.40)))

	closed, err := l.CloseTrade("no-such-id", 0.60)
	require.NoError(t, err)
	assert.False(t, closed)
}

func TestCloseTradeTwiceRejected(t *testing.T) {
	t.Parallel()
	l, _ := newTradeLog(t)
	tr := openTrade("A", 100, 0.40)
	require.NoError(t, l.Add(tr))

	closed, err := l.CloseTrade(tr.ID, 0.60)
	require.NoError(t, err)
	require.True(t, closed)

	_, err = l.CloseTrade(tr.ID, 0.70)
	assert.ErrorIs(t, err, domain.ErrTradeClosed)
}

func TestCloseTradeRejectsNonFinitePrice(t *testing.T) {
	t.Parallel()
	l, _ := newTradeLog(t)
	tr := openTrade("A", 100, 0.40)
	require.NoError(t, l.Add(tr))

	_, err := l.CloseTrade(tr.ID, math.NaN())
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	// Record stays open and closeable.
	closed, err := l.CloseTrade(tr.ID, 0.55)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestSellSidePnLSign(t *testing.T) {
	t.Parallel()
	tr := domain.NewTradeRecord("A", "BTC", "1h", "kalshi", domain.SideSell, 100, 0.60, domain.StrategyManual, 0.5)

	require.NoError(t, tr.Close(0.40))

	require.NotNil(t, tr.PnL)
	assert.InDelta(t, 100*(0.60-0.40), *tr.PnL, 1e-9)
}

func TestRecentReverseChronological(t *testing.T) {
	t.Parallel()
	l, _ := newTradeLog(t)
	a := openTrade("A", 10, 0.5)
	b := openTrade("B", 10, 0.5)
	c := openTrade("C", 10, 0.5)
	for _, tr := range []domain.TradeRecord{a, b, c} {
		require.NoError(t, l.Add(tr))
	}

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, c.ID, recent[0].ID)
	assert.Equal(t, b.ID, recent[1].ID)

	all := l.Recent(10)
	assert.Len(t, all, 3)

	assert.Empty(t, l.Recent(0))
	assert.Empty(t, l.Recent(-1))
}

func TestWinRate(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		l, _ := newTradeLog(t)
		rate, wins, closed := l.WinRate()
		assert.Zero(t, rate)
		assert.Zero(t, wins)
		assert.Zero(t, closed)
	})

	t.Run("mixed", func(t *testing.T) {
		l, _ := newTradeLog(t)
		win1 := openTrade("A", 100, 0.40)
		win2 := openTrade("B", 100, 0.30)
		loss := openTrade("C", 100, 0.60)
		open := openTrade("D", 100, 0.50)
		for _, tr := range []domain.TradeRecord{win1, win2, loss, open} {
			require.NoError(t, l.Add(tr))
		}
		for id, exit := range map[string]float64{win1.ID: 0.50, win2.ID: 0.35, loss.ID: 0.55} {
			ok, err := l.CloseTrade(id, exit)
			require.NoError(t, err)
			require.True(t, ok)
		}

		rate, wins, closed := l.WinRate()
		assert.Equal(t, 2, wins)
		assert.Equal(t, 3, closed)
		assert.InDelta(t, 2.0/3.0, rate, 1e-9)
	})
}

func TestTotalPnLSumsOnlyRealized(t *testing.T) {
	t.Parallel()
	l, _ := newTradeLog(t)
	a := openTrade("A", 100, 0.40)
	b := openTrade("B", 100, 0.50)
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Add(b))
	_, err := l.CloseTrade(a.ID, 0.45)
	require.NoError(t, err)

	assert.InDelta(t, 100*(0.45-0.40), l.TotalPnL(), 1e-9)
}

func TestBestAndWorstTrade(t *testing.T) {
	t.Parallel()
	l, _ := newTradeLog(t)

	_, ok := l.BestTrade()
	assert.False(t, ok)

	big := openTrade("A", 100, 0.40)
	small := openTrade("B", 100, 0.40)
	loser := openTrade("C", 100, 0.60)
	for _, tr := range []domain.TradeRecord{big, small, loser} {
		require.NoError(t, l.Add(tr))
	}
	for id, exit := range map[string]float64{big.ID: 0.90, small.ID: 0.45, loser.ID: 0.10} {
		ok, err := l.CloseTrade(id, exit)
		require.NoError(t, err)
		require.True(t, ok)
	}

	best, ok := l.BestTrade()
	require.True(t, ok)
	assert.Equal(t, big.ID, best.ID)

	worst, ok := l.WorstTrade()
	require.True(t, ok)
	assert.Equal(t, loser.ID, worst.ID)
}

func TestTradeLogPersistenceRoundTrip(t *testing.T) {
	t.Parallel()
	store := &memStore{}
	l, err := paper.NewTradeLog(store)
	require.NoError(t, err)

	a := openTrade("A", 100, 0.40)
	require.NoError(t, l.Add(a))
	_, err = l.CloseTrade(a.ID, 0.60)
	require.NoError(t, err)

	reloaded, err := paper.NewTradeLog(store)
	require.NoError(t, err)
	assert.Equal(t, l.All(), reloaded.All())
}
