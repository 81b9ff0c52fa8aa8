package hub

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/mwarren/mexc-relay/internal/model"
	"github.com/mwarren/mexc-relay/internal/state"
)

// fakeSub is an in-memory Subscriber.
type fakeSub struct {
	id   string
	mu   sync.Mutex
	got  [][]byte
	fail bool

	closed bool
}

func (f *fakeSub) ID() string { return f.id }

func (f *fakeSub) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrSubscriberClosed
	}
	f.got = append(f.got, data)
	return nil
}

func (f *fakeSub) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSub) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func TestRegisterPushesCurrentQuote(t *testing.T) {
	st := state.New(10)
	st.SetLatest(model.Quote{Symbol: "USDCUSDT", Price: 1.5})
	h := NewHub(st, nil)

	sub := &fakeSub{id: "a"}
	h.Register(sub)

	if sub.received() != 1 {
		t.Fatalf("received %d messages on connect, want 1 (current quote)", sub.received())
	}

	var q model.Quote
	if err := json.Unmarshal(sub.got[0], &q); err != nil {
		t.Fatalf("unmarshal pushed quote: %v", err)
	}
	if q.Price != 1.5 {
		t.Errorf("pushed quote price = %v, want 1.5", q.Price)
	}
}

func TestRegisterWithoutQuotePushesNothing(t *testing.T) {
	h := NewHub(state.New(10), nil)

	sub := &fakeSub{id: "a"}
	h.Register(sub)

	if sub.received() != 0 {
		t.Errorf("received %d messages, want 0 before any quote exists", sub.received())
	}
	if h.Count() != 1 {
		t.Errorf("Count = %d, want 1", h.Count())
	}
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	h := NewHub(state.New(10), nil)

	subs := []*fakeSub{{id: "a"}, {id: "b"}, {id: "c"}}
	for _, s := range subs {
		h.Register(s)
	}

	h.Broadcast(model.Quote{Symbol: "USDCUSDT", Price: 2.0})

	for _, s := range subs {
		if s.received() != 1 {
			t.Errorf("subscriber %s received %d, want 1", s.id, s.received())
		}
	}
}

func TestFailedSendPrunesSubscriberOnly(t *testing.T) {
	h := NewHub(state.New(10), nil)

	good := &fakeSub{id: "good"}
	bad := &fakeSub{id: "bad", fail: true}
	h.Register(good)
	h.Register(bad)

	h.Broadcast(model.Quote{Symbol: "USDCUSDT", Price: 2.0})

	if h.Count() != 1 {
		t.Errorf("Count = %d after pruning, want 1", h.Count())
	}
	if good.received() != 1 {
		t.Errorf("surviving subscriber received %d, want 1", good.received())
	}

	bad.mu.Lock()
	closed := bad.closed
	bad.mu.Unlock()
	if !closed {
		t.Error("pruned subscriber was not closed")
	}

	// A second broadcast must not attempt the pruned subscriber again.
	h.Broadcast(model.Quote{Symbol: "USDCUSDT", Price: 2.1})
	if good.received() != 2 {
		t.Errorf("surviving subscriber received %d, want 2", good.received())
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	h := NewHub(state.New(10), nil)
	sub := &fakeSub{id: "a"}
	h.Register(sub)

	h.Unregister("a")
	h.Unregister("a")
	h.Unregister("never-registered")

	if h.Count() != 0 {
		t.Errorf("Count = %d, want 0", h.Count())
	}
}

func TestHandleRequestHistory(t *testing.T) {
	st := state.New(10)
	st.Record(model.Quote{Symbol: "USDCUSDT", Price: 1.0})
	st.Record(model.Quote{Symbol: "USDCUSDT", Price: 1.1})
	h := NewHub(st, nil)

	sub := &fakeSub{id: "a"}
	h.Register(sub)

	h.HandleRequest(sub, []byte(`{"type":"request_history"}`))

	if sub.received() != 1 {
		t.Fatalf("received %d messages, want 1 history response", sub.received())
	}

	var resp HistoryResponse
	if err := json.Unmarshal(sub.got[0], &resp); err != nil {
		t.Fatalf("unmarshal history response: %v", err)
	}
	if resp.Type != "history" {
		t.Errorf("Type = %q, want %q", resp.Type, "history")
	}
	if len(resp.Data) != 2 {
		t.Fatalf("history entries = %d, want 2", len(resp.Data))
	}
	if resp.Data[0].Price != 1.0 || resp.Data[1].Price != 1.1 {
		t.Errorf("history out of order: %v", resp.Data)
	}
}

func TestHandleRequestIgnoresUnknownAndMalformed(t *testing.T) {
	h := NewHub(state.New(10), nil)
	sub := &fakeSub{id: "a"}
	h.Register(sub)

	h.HandleRequest(sub, []byte(`{"type":"shrug"}`))
	h.HandleRequest(sub, []byte(`{not json`))

	if sub.received() != 0 {
		t.Errorf("received %d messages, want 0 for unknown/malformed requests", sub.received())
	}
	if h.Count() != 1 {
		t.Errorf("Count = %d, want subscriber kept", h.Count())
	}
}
