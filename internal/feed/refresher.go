package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/crossbook/paperbot/internal/domain"
)

// PriceRefresher periodically pulls the latest cached marks for a fixed set
// of markets and re-marks the sink. The cache outlives the process, so the
// first refresh restores marks written before a restart; subsequent refreshes
// keep the ledger current across feed gaps.
type PriceRefresher struct {
	cache    domain.PriceCache
	sink     PriceSink
	markets  []string
	interval time.Duration
	logger   *slog.Logger
}

// NewPriceRefresher creates a refresher reading the given markets from cache
// into sink every interval.
func NewPriceRefresher(cache domain.PriceCache, sink PriceSink, markets []string, interval time.Duration, logger *slog.Logger) *PriceRefresher {
	return &PriceRefresher{
		cache:    cache,
		sink:     sink,
		markets:  markets,
		interval: interval,
		logger:   logger.With(slog.String("component", "price_refresher")),
	}
}

// Run refreshes once immediately, then on every interval tick until ctx is
// cancelled.
func (r *PriceRefresher) Run(ctx context.Context) error {
	if len(r.markets) == 0 {
		return nil
	}

	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh reads the cached marks and pushes whatever is present to the sink.
// Markets without a cached mark are left alone.
func (r *PriceRefresher) Refresh(ctx context.Context) {
	prices, err := r.cache.GetPrices(ctx, r.markets)
	if err != nil {
		r.logger.WarnContext(ctx, "cached price read failed", slog.String("error", err.Error()))
		return
	}
	if len(prices) == 0 {
		return
	}

	if err := r.sink.UpdatePrices(ctx, prices); err != nil {
		r.logger.WarnContext(ctx, "mark price update failed", slog.String("error", err.Error()))
		return
	}
	r.logger.DebugContext(ctx, "marks refreshed from cache", slog.Int("markets", len(prices)))
}
