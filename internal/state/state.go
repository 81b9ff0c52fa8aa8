// Package state owns the mutable quote state of the relay: the latest-quote
// slot and the rolling history ring. It is constructed once in main and
// injected into the components that need it; there are no package-level
// globals.
package state

import (
	"sync"

	"github.com/mwarren/mexc-relay/internal/history"
	"github.com/mwarren/mexc-relay/internal/model"
)

// State is the single owner of the latest quote and the history ring.
// The latest slot is replaced wholesale on every update so readers never
// observe a partially written quote.
type State struct {
	mu     sync.RWMutex
	latest model.Quote
	seeded bool

	ring *history.Ring
}

// New creates state with a history ring of the given capacity.
func New(maxHistory int) *State {
	return &State{
		ring: history.NewRing(maxHistory),
	}
}

// SetLatest replaces the latest-quote slot.
func (s *State) SetLatest(q model.Quote) {
	s.mu.Lock()
	s.latest = q
	s.seeded = true
	s.mu.Unlock()
}

// ApplyDeal overlays the last-trade fields onto the current latest quote.
// A deal arriving before any full quote is dropped; there is nothing to
// overlay onto and a quote must never be fabricated from a trade alone.
func (s *State) ApplyDeal(d model.Deal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		return false
	}
	s.latest = s.latest.WithDeal(d)
	return true
}

// Latest returns the current quote and whether one exists yet.
func (s *State) Latest() (model.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.seeded
}

// Record appends a broadcast quote to the history ring.
func (s *State) Record(q model.Quote) {
	s.ring.Append(q)
}

// History returns a full snapshot of the rolling history in order.
func (s *State) History() []model.Quote {
	return s.ring.Snapshot()
}

// HistoryStats exposes ring counters for health reporting.
func (s *State) HistoryStats() history.RingStats {
	return s.ring.Stats()
}
