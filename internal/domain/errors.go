package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPositionNotFound    = errors.New("position not found")
	ErrTradeNotFound       = errors.New("trade not found")
	ErrTradeClosed         = errors.New("trade already closed")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrWSDisconnect        = errors.New("websocket disconnected")
	ErrBreakerTripped      = errors.New("circuit breaker tripped")
)

// InsufficientBalanceError reports a declined position open, carrying both the
// available cash and the requested notional so callers can render the refusal.
type InsufficientBalanceError struct {
	Available float64
	Needed    float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: $%.2f available, $%.2f needed", e.Available, e.Needed)
}

// Unwrap lets errors.Is match ErrInsufficientBalance.
func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// PositionNotFoundError reports a close attempt against a market with no open
// position.
type PositionNotFoundError struct {
	Market string
}

func (e *PositionNotFoundError) Error() string {
	return fmt.Sprintf("no position found for %s", e.Market)
}

// Unwrap lets errors.Is match ErrPositionNotFound.
func (e *PositionNotFoundError) Unwrap() error { return ErrPositionNotFound }
