package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crossbook/paperbot/internal/domain"
	"github.com/crossbook/paperbot/internal/platform/polymarket"
)

// PriceSink receives mark prices keyed by market name. The paper engine
// implements this.
type PriceSink interface {
	UpdatePrices(ctx context.Context, prices map[string]float64) error
}

// PolymarketFeed connects to the Polymarket CLOB WebSocket, subscribes to
// the market channel for the configured token IDs, and publishes the mid
// price of every book snapshot to the price cache and the sink. It
// reconnects on disconnect.
type PolymarketFeed struct {
	wsURL string

	// tokens maps a CLOB token ID to the market name used by the ledger.
	tokens map[string]string

	cache domain.PriceCache
	sink  PriceSink

	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewPolymarketFeed creates a feed for the given token-to-market mapping.
// cache and sink may each be nil.
func NewPolymarketFeed(wsURL string, tokens map[string]string, cache domain.PriceCache, sink PriceSink, logger *slog.Logger) *PolymarketFeed {
	return &PolymarketFeed{
		wsURL:  wsURL,
		tokens: tokens,
		cache:  cache,
		sink:   sink,
		logger: logger.With(slog.String("component", "polymarket_feed")),
		done:   make(chan struct{}),
	}
}

// Run connects, subscribes, and runs until ctx is cancelled. On disconnect
// it tears the connection down and dials again after a short delay.
func (f *PolymarketFeed) Run(ctx context.Context) error {
	if len(f.tokens) == 0 {
		f.logger.Info("no tokens to subscribe, exiting")
		return nil
	}

	assetIDs := make([]string, 0, len(f.tokens))
	for id := range f.tokens {
		assetIDs = append(assetIDs, id)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx, assetIDs)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("polymarket ws disconnected, reconnecting",
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *PolymarketFeed) runConnection(ctx context.Context, assetIDs []string) error {
	client := polymarket.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnBook(func(ev polymarket.BookEvent) {
		f.publishBook(ctx, ev)
	})

	connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err := client.Connect(connCtx)
	cancel()
	if err != nil {
		return err
	}

	if err := client.Subscribe(ctx, assetIDs); err != nil {
		return err
	}
	f.logger.Info("polymarket ws subscribed", slog.Int("assets", len(assetIDs)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return nil
	}
}

// publishBook converts a book snapshot into a mid price for the mapped
// market and pushes it to the cache and the sink.
func (f *PolymarketFeed) publishBook(ctx context.Context, ev polymarket.BookEvent) {
	market, ok := f.tokens[ev.AssetID]
	if !ok {
		return
	}

	bid, ask := ev.BestBid(), ev.BestAsk()
	var mid float64
	switch {
	case bid > 0 && ask > 0:
		mid = (bid + ask) / 2
	case bid > 0:
		mid = bid
	case ask > 0:
		mid = ask
	default:
		return
	}

	if f.cache != nil {
		if err := f.cache.SetPrice(ctx, market, mid, time.Now().UTC()); err != nil {
			f.logger.Warn("cache price update failed",
				slog.String("market", market),
				slog.String("error", err.Error()))
		}
	}
	if f.sink != nil {
		if err := f.sink.UpdatePrices(ctx, map[string]float64{market: mid}); err != nil {
			f.logger.Warn("mark price update failed",
				slog.String("market", market),
				slog.String("error", err.Error()))
		}
	}
}

// Close stops the feed.
func (f *PolymarketFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
