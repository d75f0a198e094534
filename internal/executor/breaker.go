package executor

import (
	"log/slog"
	"sync/atomic"
)

// Breaker halts trading when tripped. It is safe for concurrent use and
// defaults to allowing trades.
type Breaker struct {
	tripped atomic.Bool
	logger  *slog.Logger
}

// NewBreaker creates an untripped Breaker.
func NewBreaker(logger *slog.Logger) *Breaker {
	return &Breaker{
		logger: logger.With(slog.String("component", "breaker")),
	}
}

// Trip halts all trading. The reason is logged once per trip.
func (b *Breaker) Trip(reason string) {
	if !b.tripped.Swap(true) {
		b.logger.Warn("circuit breaker tripped", slog.String("reason", reason))
	}
}

// Reset re-enables trading.
func (b *Breaker) Reset() {
	b.tripped.Store(false)
	b.logger.Info("circuit breaker reset")
}

// Allowed reports whether trading may proceed.
func (b *Breaker) Allowed() bool {
	return !b.tripped.Load()
}
