package executor

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupFirstSeenIsNotDuplicate(t *testing.T) {
	t.Parallel()

	d := NewDedup(time.Minute)

	assert.False(t, d.IsDuplicate("sig-1"))
	assert.True(t, d.IsDuplicate("sig-1"))
	assert.False(t, d.IsDuplicate("sig-2"))
}

func TestDedupExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	d := NewDedup(10 * time.Millisecond)

	assert.False(t, d.IsDuplicate("sig"))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, d.IsDuplicate("sig"))
}

func TestDedupCleanupDropsExpiredEntries(t *testing.T) {
	t.Parallel()

	d := NewDedup(10 * time.Millisecond)
	d.IsDuplicate("a")
	d.IsDuplicate("b")

	time.Sleep(20 * time.Millisecond)
	d.Cleanup()

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.seen)
}

func TestBreakerTripAndReset(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := NewBreaker(logger)

	assert.True(t, b.Allowed())

	b.Trip("too many losses")
	assert.False(t, b.Allowed())

	// A second trip is a no-op, not a panic.
	b.Trip("again")
	assert.False(t, b.Allowed())

	b.Reset()
	assert.True(t, b.Allowed())
}
