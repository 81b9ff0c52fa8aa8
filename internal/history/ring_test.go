package history

import (
	"sync"
	"testing"

	"github.com/mwarren/mexc-relay/internal/model"
)

func quoteN(n int) model.Quote {
	return model.Quote{Symbol: "USDCUSDT", Count: int64(n)}
}

func TestAppendAndSnapshotOrder(t *testing.T) {
	r := NewRing(10)

	for i := 0; i < 5; i++ {
		r.Append(quoteN(i))
	}

	if r.Len() != 5 {
		t.Fatalf("Len = %d, want 5", r.Len())
	}

	snap := r.Snapshot()
	for i, q := range snap {
		if q.Count != int64(i) {
			t.Errorf("snap[%d].Count = %d, want %d", i, q.Count, i)
		}
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	const capacity = 7
	r := NewRing(capacity)

	for i := 0; i < 100; i++ {
		r.Append(quoteN(i))
		if r.Len() > capacity {
			t.Fatalf("Len = %d exceeds capacity %d after %d appends", r.Len(), capacity, i+1)
		}
	}

	// Contents equal the last `capacity` appended items in order.
	snap := r.Snapshot()
	if len(snap) != capacity {
		t.Fatalf("snapshot length = %d, want %d", len(snap), capacity)
	}
	for i, q := range snap {
		want := int64(100 - capacity + i)
		if q.Count != want {
			t.Errorf("snap[%d].Count = %d, want %d", i, q.Count, want)
		}
	}

	stats := r.Stats()
	if stats.TotalAppended != 100 {
		t.Errorf("TotalAppended = %d, want 100", stats.TotalAppended)
	}
	if stats.TotalEvicted != 100-capacity {
		t.Errorf("TotalEvicted = %d, want %d", stats.TotalEvicted, 100-capacity)
	}
}

func TestEmptySnapshot(t *testing.T) {
	r := NewRing(5)
	if snap := r.Snapshot(); snap != nil {
		t.Errorf("empty ring snapshot = %v, want nil", snap)
	}
}

func TestMinimumCapacity(t *testing.T) {
	r := NewRing(0)
	r.Append(quoteN(1))
	r.Append(quoteN(2))

	if r.Cap() != 1 {
		t.Errorf("Cap = %d, want 1", r.Cap())
	}
	snap := r.Snapshot()
	if len(snap) != 1 || snap[0].Count != 2 {
		t.Errorf("snapshot = %v, want only the newest entry", snap)
	}
}

func TestConcurrentAppendAndSnapshot(t *testing.T) {
	r := NewRing(50)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.Append(quoteN(i))
		}
	}()

	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := r.Snapshot()
				if len(snap) > 50 {
					t.Errorf("snapshot length %d exceeds capacity", len(snap))
					return
				}
				// Entries within one snapshot stay insertion-ordered.
				for j := 1; j < len(snap); j++ {
					if snap[j].Count < snap[j-1].Count {
						t.Errorf("snapshot out of order at %d: %d < %d", j, snap[j].Count, snap[j-1].Count)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}
