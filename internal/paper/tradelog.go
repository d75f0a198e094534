package paper

import (
	"fmt"

	"github.com/crossbook/paperbot/internal/domain"
)

// TradeLog is the append-only trade history. Records are held in insertion
// order (chronological) and the full sequence is rewritten through the store
// after every mutation. Closing a record mutates it in place; records are
// never deleted, even across portfolio resets.
//
// TradeLog is not safe for concurrent use. The Engine serializes access.
type TradeLog struct {
	trades []domain.TradeRecord
	store  domain.TradeLogStore
}

// NewTradeLog loads the trade history from the store, or starts empty when no
// history exists. A corrupt history also starts empty; the load error is
// returned alongside the usable log so the caller can surface the data loss.
func NewTradeLog(store domain.TradeLogStore) (*TradeLog, error) {
	trades, ok, err := store.LoadTrades()
	if !ok || err != nil {
		trades = nil
	}
	return &TradeLog{trades: trades, store: store}, err
}

// Add appends a record and persists the full sequence.
func (l *TradeLog) Add(trade domain.TradeRecord) error {
	l.trades = append(l.trades, trade)
	return l.save()
}

// CloseTrade closes the first record with the given ID at exitPrice and
// persists. It returns false when no record matches. The scan is linear;
// trade histories stay small enough that an index is not worth carrying.
func (l *TradeLog) CloseTrade(id string, exitPrice float64) (bool, error) {
	for i := range l.trades {
		if l.trades[i].ID == id {
			if err := l.trades[i].Close(exitPrice); err != nil {
				return false, err
			}
			return true, l.save()
		}
	}
	return false, nil
}

// All returns copies of every record in chronological order.
func (l *TradeLog) All() []domain.TradeRecord {
	out := make([]domain.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// Open returns the records with status Open.
func (l *TradeLog) Open() []domain.TradeRecord {
	return l.filter(domain.TradeStatusOpen)
}

// Closed returns the records with status Closed.
func (l *TradeLog) Closed() []domain.TradeRecord {
	return l.filter(domain.TradeStatusClosed)
}

func (l *TradeLog) filter(status domain.TradeStatus) []domain.TradeRecord {
	var out []domain.TradeRecord
	for _, t := range l.trades {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Recent returns the last n records in reverse-chronological order.
func (l *TradeLog) Recent(n int) []domain.TradeRecord {
	if n < 0 {
		n = 0
	}
	if n > len(l.trades) {
		n = len(l.trades)
	}
	out := make([]domain.TradeRecord, 0, n)
	for i := len(l.trades) - 1; i >= len(l.trades)-n; i-- {
		out = append(out, l.trades[i])
	}
	return out
}

// TotalPnL sums the realized PnL over all records that have one.
func (l *TradeLog) TotalPnL() float64 {
	var total float64
	for _, t := range l.trades {
		if t.PnL != nil {
			total += *t.PnL
		}
	}
	return total
}

// WinRate returns the fraction of closed trades with positive PnL, the win
// count, and the closed count. An empty closed set yields (0, 0, 0).
func (l *TradeLog) WinRate() (rate float64, wins, closed int) {
	for _, t := range l.trades {
		if t.Status != domain.TradeStatusClosed {
			continue
		}
		closed++
		if t.IsProfitable() {
			wins++
		}
	}
	if closed == 0 {
		return 0, 0, 0
	}
	return float64(wins) / float64(closed), wins, closed
}

// BestTrade returns the record with the highest realized PnL, or false when
// no record has a PnL.
func (l *TradeLog) BestTrade() (domain.TradeRecord, bool) {
	return l.extreme(func(candidate, best float64) bool { return candidate > best })
}

// WorstTrade returns the record with the lowest realized PnL, or false when
// no record has a PnL.
func (l *TradeLog) WorstTrade() (domain.TradeRecord, bool) {
	return l.extreme(func(candidate, best float64) bool { return candidate < best })
}

func (l *TradeLog) extreme(better func(candidate, best float64) bool) (domain.TradeRecord, bool) {
	var pick *domain.TradeRecord
	for i := range l.trades {
		t := &l.trades[i]
		if t.PnL == nil {
			continue
		}
		if pick == nil || better(*t.PnL, *pick.PnL) {
			pick = t
		}
	}
	if pick == nil {
		return domain.TradeRecord{}, false
	}
	return *pick, true
}

// Len returns the total number of records.
func (l *TradeLog) Len() int { return len(l.trades) }

func (l *TradeLog) save() error {
	if err := l.store.SaveTrades(l.trades); err != nil {
		return fmt.Errorf("tradelog: save trades: %w", err)
	}
	return nil
}
