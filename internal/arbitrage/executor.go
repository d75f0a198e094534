package arbitrage

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/crossbook/paperbot/internal/domain"
	"github.com/crossbook/paperbot/internal/executor"
	"github.com/crossbook/paperbot/internal/paper"
)

// EventOpportunity is the notification event type for detected spreads,
// EventBreaker the one for circuit-breaker trips.
const (
	EventOpportunity = "arb_opportunity"
	EventBreaker     = "breaker"
)

// maxConsecutiveFailures is the ledger failure streak that trips the
// circuit breaker.
const maxConsecutiveFailures = 3

// Notifier delivers alerts for detected opportunities. notify.Notifier
// implements this.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// PaperExecutor records detected opportunities on the paper ledger by
// buying the cheap leg through the engine. Every execution is guarded by
// the dedup window and the circuit breaker; dry-run skips the ledger and
// only logs. A streak of maxConsecutiveFailures ledger errors trips the
// breaker, which then needs an operator Reset.
type PaperExecutor struct {
	engine   *paper.Engine
	dedup    *executor.Dedup
	breaker  *executor.Breaker
	notifier Notifier

	sizeUSD float64
	dryRun  bool
	logger  *slog.Logger

	// failures counts consecutive ledger errors. Execute is only called
	// from the single detection loop, so no lock is needed.
	failures int
}

// NewPaperExecutor creates an executor placing sizeUSD paper orders.
// notifier may be nil.
func NewPaperExecutor(engine *paper.Engine, dedup *executor.Dedup, breaker *executor.Breaker, notifier Notifier, sizeUSD float64, dryRun bool, logger *slog.Logger) *PaperExecutor {
	return &PaperExecutor{
		engine:   engine,
		dedup:    dedup,
		breaker:  breaker,
		notifier: notifier,
		sizeUSD:  sizeUSD,
		dryRun:   dryRun,
		logger:   logger.With(slog.String("component", "arb_executor")),
	}
}

// Execute records the opportunity on the paper ledger. Duplicate signals
// within the dedup window are dropped without error; a tripped breaker
// returns domain.ErrBreakerTripped.
func (x *PaperExecutor) Execute(ctx context.Context, opp Opportunity) error {
	if !x.breaker.Allowed() {
		return fmt.Errorf("arbitrage: execute %s: %w", opp.Pair.Name, domain.ErrBreakerTripped)
	}

	if x.dedup.IsDuplicate(opp.Key()) {
		x.logger.DebugContext(ctx, "duplicate signal dropped", slog.String("key", opp.Key()))
		return nil
	}

	x.notify(ctx, opp)

	if x.dryRun {
		x.logger.InfoContext(ctx, "dry run, skipping paper order", slog.String("opportunity", opp.String()))
		return nil
	}

	confidence := math.Min(1, opp.Spread/0.10)

	tradeID, err := x.engine.Buy(ctx,
		opp.Pair.Name, opp.Pair.Coin, opp.Pair.Timeframe, opp.BuyVenue,
		x.sizeUSD, opp.BuyPrice,
		domain.StrategyArbitrage, confidence)
	if err != nil {
		x.failures++
		if x.failures >= maxConsecutiveFailures {
			reason := fmt.Sprintf("%d consecutive execution failures, last: %v", x.failures, err)
			x.breaker.Trip(reason)
			x.notifyBreaker(ctx, reason)
		}
		return fmt.Errorf("arbitrage: execute %s: %w", opp.Pair.Name, err)
	}
	x.failures = 0

	x.logger.InfoContext(ctx, "paper order placed",
		slog.String("trade_id", tradeID),
		slog.String("pair", opp.Pair.Name),
		slog.String("direction", string(opp.Direction)),
		slog.Float64("size_usd", x.sizeUSD),
		slog.Float64("price", opp.BuyPrice))

	return nil
}

func (x *PaperExecutor) notify(ctx context.Context, opp Opportunity) {
	if x.notifier == nil {
		return
	}
	title := fmt.Sprintf("Arb: %s", opp.Pair.Name)
	if err := x.notifier.Notify(ctx, EventOpportunity, title, opp.String()); err != nil {
		x.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
	}
}

func (x *PaperExecutor) notifyBreaker(ctx context.Context, reason string) {
	if x.notifier == nil {
		return
	}
	if err := x.notifier.Notify(ctx, EventBreaker, "Trading halted", reason); err != nil {
		x.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
	}
}
