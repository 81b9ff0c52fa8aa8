// Package history holds the bounded rolling history of broadcast quotes.
package history

import (
	"sync"

	"github.com/mwarren/mexc-relay/internal/model"
)

// Ring is a fixed-capacity FIFO of quotes, safe for concurrent append and
// full-snapshot reads. When full, the oldest entry is evicted.
type Ring struct {
	mu       sync.RWMutex
	buf      []model.Quote
	head     int // read position (oldest entry)
	count    int
	capacity int

	totalAppended int64
	totalEvicted  int64
}

// NewRing creates a ring with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		buf:      make([]model.Quote, capacity),
		capacity: capacity,
	}
}

// Append adds a quote, evicting the oldest entry when the ring is full.
func (r *Ring) Append(q model.Quote) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tail := (r.head + r.count) % r.capacity
	r.buf[tail] = q

	if r.count == r.capacity {
		// Overwrote the oldest entry; advance the read position.
		r.head = (r.head + 1) % r.capacity
		r.totalEvicted++
	} else {
		r.count++
	}
	r.totalAppended++
}

// Snapshot returns a copy of the ring contents in insertion order.
func (r *Ring) Snapshot() []model.Quote {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	out := make([]model.Quote, r.count)
	if r.head+r.count <= r.capacity {
		copy(out, r.buf[r.head:r.head+r.count])
	} else {
		n := copy(out, r.buf[r.head:])
		copy(out[n:], r.buf[:r.count-(r.capacity-r.head)])
	}
	return out
}

// Len returns the current number of entries.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int {
	return r.capacity
}

// Stats returns append/evict counters.
func (r *Ring) Stats() RingStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RingStats{
		Len:           r.count,
		Cap:           r.capacity,
		TotalAppended: r.totalAppended,
		TotalEvicted:  r.totalEvicted,
	}
}

// RingStats contains ring counters.
type RingStats struct {
	Len           int
	Cap           int
	TotalAppended int64
	TotalEvicted  int64
}
