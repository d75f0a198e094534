package executor

import (
	"context"
	"sync"
	"time"
)

// Dedup suppresses repeated trade signals within a time-to-live window.
// It is safe for concurrent use.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]time.Time // signal ID -> last seen
	ttl  time.Duration
}

// NewDedup creates a Dedup that treats a signal as a duplicate when it was
// seen within ttl.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// IsDuplicate reports whether signalID was seen within the TTL window. A
// new or expired signal is recorded and false is returned.
func (d *Dedup) IsDuplicate(signalID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.seen[signalID]; ok && now.Sub(last) < d.ttl {
		return true
	}

	d.seen[signalID] = now
	return false
}

// Cleanup removes expired entries. Call periodically to bound memory.
func (d *Dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for id, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, id)
		}
	}
}

// Run calls Cleanup every ttl until ctx is cancelled.
func (d *Dedup) Run(ctx context.Context) {
	ticker := time.NewTicker(d.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Cleanup()
		}
	}
}
