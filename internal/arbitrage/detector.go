package arbitrage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crossbook/paperbot/internal/domain"
)

// Direction identifies which of the spread checks produced an opportunity.
type Direction string

const (
	// BuyKalshiSellPoly buys YES on Kalshi and sells YES on Polymarket.
	BuyKalshiSellPoly Direction = "buy_kalshi_sell_poly"

	// BuyPolySellKalshi buys YES on Polymarket and sells YES on Kalshi.
	BuyPolySellKalshi Direction = "buy_poly_sell_kalshi"

	// LockPolyYesKalshiNo buys YES on Polymarket and NO on Kalshi; the pair
	// settles to exactly $1 regardless of outcome.
	LockPolyYesKalshiNo Direction = "lock_poly_yes_kalshi_no"

	// LockKalshiYesPolyNo buys YES on Kalshi and NO on Polymarket.
	LockKalshiYesPolyNo Direction = "lock_kalshi_yes_poly_no"
)

// Opportunity is a profitable spread found on a matched pair.
type Opportunity struct {
	Pair       domain.MatchedMarket
	Direction  Direction
	BuyVenue   string
	SellVenue  string
	BuyPrice   float64
	SellPrice  float64
	Spread     float64
	DetectedAt time.Time
}

// Key identifies the opportunity for deduplication: repeated detections of
// the same pair and direction within the dedup window are one signal.
func (o Opportunity) Key() string {
	return o.Pair.Name + "|" + string(o.Direction)
}

func (o Opportunity) String() string {
	return fmt.Sprintf("%s %s: buy %.3f sell %.3f spread %.2f%%",
		o.Pair.Name, o.Direction, o.BuyPrice, o.SellPrice, o.Spread*100)
}

// YesNoSource quotes both outcomes of a market. The Kalshi client
// implements this.
type YesNoSource interface {
	YesNoPrices(ctx context.Context, ticker string) (yes, no domain.Quote, err error)
}

// Detector scans the registered pairs for cross-venue spreads above the
// minimum profit threshold.
type Detector struct {
	poly      domain.PriceSource
	kalshi    YesNoSource
	registry  *Registry
	minProfit float64
	logger    *slog.Logger
}

// NewDetector creates a detector. minProfit is a fraction, e.g. 0.02 for 2%.
func NewDetector(poly domain.PriceSource, kalshi YesNoSource, registry *Registry, minProfit float64, logger *slog.Logger) *Detector {
	return &Detector{
		poly:      poly,
		kalshi:    kalshi,
		registry:  registry,
		minProfit: minProfit,
		logger:    logger.With(slog.String("component", "arb_detector")),
	}
}

// CheckAll runs one detection pass over every registered pair. A pair whose
// quotes cannot be fetched is logged and skipped; the pass continues.
func (d *Detector) CheckAll(ctx context.Context) []Opportunity {
	var found []Opportunity
	for _, pair := range d.registry.All() {
		opps, err := d.CheckPair(ctx, pair)
		if err != nil {
			d.logger.WarnContext(ctx, "pair check failed",
				slog.String("pair", pair.Name),
				slog.String("error", err.Error()))
			continue
		}
		found = append(found, opps...)
	}
	return found
}

// CheckPair evaluates the four spread checks for one matched pair:
// the two cross-venue YES resales, and the two YES/NO settlement locks
// where buying both outcomes costs less than the $1 payout.
func (d *Detector) CheckPair(ctx context.Context, pair domain.MatchedMarket) ([]Opportunity, error) {
	pYes, err := d.poly.BestPrices(ctx, pair.PolymarketID)
	if err != nil {
		return nil, fmt.Errorf("arbitrage: polymarket quote %s: %w", pair.PolymarketID, err)
	}
	kYes, kNo, err := d.kalshi.YesNoPrices(ctx, pair.KalshiTicker)
	if err != nil {
		return nil, fmt.Errorf("arbitrage: kalshi quote %s: %w", pair.KalshiTicker, err)
	}

	now := time.Now().UTC()
	var opps []Opportunity

	// Buy Kalshi YES, sell Polymarket YES.
	if kYes.Ask > 0 && pYes.Bid > 0 {
		if spread := pYes.Bid - kYes.Ask; spread > d.minProfit {
			opps = append(opps, Opportunity{
				Pair:       pair,
				Direction:  BuyKalshiSellPoly,
				BuyVenue:   domain.VenueKalshi,
				SellVenue:  domain.VenuePolymarket,
				BuyPrice:   kYes.Ask,
				SellPrice:  pYes.Bid,
				Spread:     spread,
				DetectedAt: now,
			})
		}
	}

	// Buy Polymarket YES, sell Kalshi YES.
	if pYes.Ask > 0 && kYes.Bid > 0 {
		if spread := kYes.Bid - pYes.Ask; spread > d.minProfit {
			opps = append(opps, Opportunity{
				Pair:       pair,
				Direction:  BuyPolySellKalshi,
				BuyVenue:   domain.VenuePolymarket,
				SellVenue:  domain.VenueKalshi,
				BuyPrice:   pYes.Ask,
				SellPrice:  kYes.Bid,
				Spread:     spread,
				DetectedAt: now,
			})
		}
	}

	// Buy Polymarket YES and Kalshi NO; the two legs pay out $1 combined.
	if pYes.Ask > 0 && kNo.Ask > 0 {
		if spread := 1 - (pYes.Ask + kNo.Ask); spread > d.minProfit {
			opps = append(opps, Opportunity{
				Pair:       pair,
				Direction:  LockPolyYesKalshiNo,
				BuyVenue:   domain.VenuePolymarket,
				SellVenue:  domain.VenueKalshi,
				BuyPrice:   pYes.Ask,
				SellPrice:  1 - kNo.Ask,
				Spread:     spread,
				DetectedAt: now,
			})
		}
	}

	// Buy Kalshi YES and Polymarket NO. Needs the NO token configured.
	if pair.PolymarketNoID != "" && kYes.Ask > 0 {
		pNo, err := d.poly.BestPrices(ctx, pair.PolymarketNoID)
		if err != nil {
			return opps, fmt.Errorf("arbitrage: polymarket NO quote %s: %w", pair.PolymarketNoID, err)
		}
		if pNo.Ask > 0 {
			if spread := 1 - (kYes.Ask + pNo.Ask); spread > d.minProfit {
				opps = append(opps, Opportunity{
					Pair:       pair,
					Direction:  LockKalshiYesPolyNo,
					BuyVenue:   domain.VenueKalshi,
					SellVenue:  domain.VenuePolymarket,
					BuyPrice:   kYes.Ask,
					SellPrice:  1 - pNo.Ask,
					Spread:     spread,
					DetectedAt: now,
				})
			}
		}
	}

	for _, o := range opps {
		d.logger.InfoContext(ctx, "arbitrage opportunity",
			slog.String("pair", o.Pair.Name),
			slog.String("direction", string(o.Direction)),
			slog.Float64("buy", o.BuyPrice),
			slog.Float64("sell", o.SellPrice),
			slog.Float64("spread_pct", o.Spread*100))
	}

	return opps, nil
}
