package arbitrage

import (
	"sort"
	"sync"

	"github.com/crossbook/paperbot/internal/domain"
)

// Registry holds the table of matched cross-venue market pairs. Pairs are
// loaded from config at startup and may be added at runtime.
type Registry struct {
	mu    sync.RWMutex
	pairs map[string]domain.MatchedMarket // keyed by Polymarket token ID
}

// NewRegistry creates a registry seeded with the given pairs.
func NewRegistry(pairs []domain.MatchedMarket) *Registry {
	r := &Registry{pairs: make(map[string]domain.MatchedMarket, len(pairs))}
	for _, p := range pairs {
		r.pairs[p.PolymarketID] = p
	}
	return r
}

// Add inserts or replaces a pair keyed by its Polymarket token ID.
func (r *Registry) Add(pair domain.MatchedMarket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[pair.PolymarketID] = pair
}

// ByPolymarketID returns the pair for the given Polymarket token ID.
func (r *Registry) ByPolymarketID(id string) (domain.MatchedMarket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pairs[id]
	return p, ok
}

// All returns every pair sorted by name.
func (r *Registry) All() []domain.MatchedMarket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.MatchedMarket, 0, len(r.pairs))
	for _, p := range r.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered pairs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pairs)
}
