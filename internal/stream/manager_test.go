package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mwarren/mexc-relay/internal/model"
	"github.com/mwarren/mexc-relay/internal/state"
)

// fakeClient is an in-memory Client for driving the manager in tests.
type fakeClient struct {
	mu       sync.Mutex
	sent     []Command
	messages chan TimestampedMessage
	errors   chan error
	closed   bool

	// answerPings makes Send reply to every ping with a pong message.
	answerPings bool

	// subDelay stalls every non-ping Send, simulating slow subscribe writes.
	subDelay time.Duration
}

func newFakeClient(answerPings bool) *fakeClient {
	return &fakeClient{
		messages:    make(chan TimestampedMessage, 64),
		errors:      make(chan error, 1),
		answerPings: answerPings,
	}
}

func (f *fakeClient) Connect(ctx context.Context) error { return nil }

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) Send(data []byte) error {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return err
	}

	f.mu.Lock()
	f.sent = append(f.sent, cmd)
	f.mu.Unlock()

	if cmd.Method == MethodPing && f.answerPings {
		f.push(`{"channel":"pong"}`)
	}
	if cmd.Method != MethodPing && f.subDelay > 0 {
		time.Sleep(f.subDelay)
	}
	return nil
}

func (f *fakeClient) push(raw string) {
	select {
	case f.messages <- TimestampedMessage{Data: []byte(raw), ReceivedAt: time.Now()}:
	default:
	}
}

func (f *fakeClient) Messages() <-chan TimestampedMessage { return f.messages }
func (f *fakeClient) Errors() <-chan error                { return f.errors }
func (f *fakeClient) IsConnected() bool                   { return !f.closed }

func (f *fakeClient) sentMethods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	methods := make([]string, len(f.sent))
	for i, cmd := range f.sent {
		methods[i] = cmd.Method
	}
	return methods
}

func testManagerConfig() ManagerConfig {
	return ManagerConfig{
		URL:            "ws://fake",
		Symbol:         "USDC_USDT",
		PingInterval:   20 * time.Millisecond,
		PongTimeout:    10 * time.Millisecond,
		ReconnectDelay: 10 * time.Millisecond,
		WriteTimeout:   time.Second,
		BufferSize:     64,
	}
}

func TestSessionHandshake(t *testing.T) {
	st := state.New(10)
	fc := newFakeClient(true)

	m := NewManager(testManagerConfig(), st, nil)
	m.newClient = func(ClientConfig, *slog.Logger) Client { return fc }

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopManager(t, m)

	waitFor(t, func() bool {
		methods := fc.sentMethods()
		return len(methods) >= 3
	}, "handshake commands")

	methods := fc.sentMethods()
	if methods[0] != MethodPing {
		t.Errorf("first command = %q, want initial ping probe", methods[0])
	}
	if methods[1] != MethodSubTicker || methods[2] != MethodSubDeal {
		t.Errorf("subscriptions = %v, want [sub.ticker sub.deal]", methods[1:3])
	}
}

func TestTickerPushUpdatesState(t *testing.T) {
	st := state.New(10)
	fc := newFakeClient(true)

	m := NewManager(testManagerConfig(), st, nil)
	m.newClient = func(ClientConfig, *slog.Logger) Client { return fc }

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopManager(t, m)

	fc.push(`{"channel":"push.ticker","symbol":"USDC_USDT","ts":1700000000000,
		"data":{"symbol":"USDC_USDT","lastPrice":0.9998,"riseFallRate":0.015}}`)

	waitFor(t, func() bool {
		_, ok := st.Latest()
		return ok
	}, "state update from ticker push")

	q, _ := st.Latest()
	if q.Price != 0.9998 {
		t.Errorf("Price = %v, want 0.9998", q.Price)
	}
	if q.PriceChangePercent != 1.5 {
		t.Errorf("PriceChangePercent = %v, want 1.5", q.PriceChangePercent)
	}
}

func TestDealPushOverlaysState(t *testing.T) {
	st := state.New(10)
	st.SetLatest(model.Quote{Symbol: "USDC_USDT", Price: 1.0, Volume: 50})

	fc := newFakeClient(true)
	m := NewManager(testManagerConfig(), st, nil)
	m.newClient = func(ClientConfig, *slog.Logger) Client { return fc }

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopManager(t, m)

	fc.push(`{"channel":"push.deal","symbol":"USDC_USDT",
		"data":{"deals":[{"p":1.001,"v":3,"T":2,"t":100},{"p":1.002,"v":4,"T":1,"t":200}]}}`)

	waitFor(t, func() bool {
		q, _ := st.Latest()
		return q.DealPrice != 0
	}, "deal overlay")

	q, _ := st.Latest()
	if q.DealPrice != 1.002 || q.DealSide != model.DealBuy {
		t.Errorf("deal overlay = %v/%s, want newest batch entry 1.002/buy", q.DealPrice, q.DealSide)
	}
	if q.Price != 1.0 || q.Volume != 50 {
		t.Errorf("deal push altered non-deal fields: %+v", q)
	}
}

func TestMalformedMessageDoesNotEndSession(t *testing.T) {
	st := state.New(10)
	fc := newFakeClient(true)

	m := NewManager(testManagerConfig(), st, nil)
	m.newClient = func(ClientConfig, *slog.Logger) Client { return fc }

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopManager(t, m)

	fc.push(`{not json`)
	fc.push(`{"channel":"push.ticker","data":{"lastPrice":1.5}}`)

	waitFor(t, func() bool {
		_, ok := st.Latest()
		return ok
	}, "quote after malformed message")

	if m.Stats().Reconnects != 0 {
		t.Errorf("Reconnects = %d, want 0 (malformed input must not drop the session)", m.Stats().Reconnects)
	}
}

func TestPongTimeoutReconnectsOncePerTimeout(t *testing.T) {
	st := state.New(10)

	var mu sync.Mutex
	var clients []*fakeClient

	m := NewManager(testManagerConfig(), st, nil)
	m.newClient = func(ClientConfig, *slog.Logger) Client {
		fc := newFakeClient(false) // never answers pings
		mu.Lock()
		clients = append(clients, fc)
		mu.Unlock()
		return fc
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Each session: pong deadline 10ms, then a 10ms reconnect delay.
	time.Sleep(120 * time.Millisecond)
	stopManager(t, m)

	mu.Lock()
	sessions := len(clients)
	mu.Unlock()
	reconnects := m.Stats().Reconnects

	if sessions < 2 {
		t.Fatalf("saw %d sessions, want at least 2 (timeout should trigger reconnect)", sessions)
	}
	// One reconnect per ended session, no storms.
	if reconnects != int64(sessions)-1 && reconnects != int64(sessions) {
		t.Errorf("Reconnects = %d for %d sessions, want one per timeout", reconnects, sessions)
	}

	// Every session sent exactly one hello ping: no duplicate probes
	// within a session once the pong deadline was missed.
	mu.Lock()
	defer mu.Unlock()
	for i, fc := range clients[:sessions-1] {
		pings := 0
		for _, method := range fc.sentMethods() {
			if method == MethodPing {
				pings++
			}
		}
		if pings != 1 {
			t.Errorf("session %d sent %d pings, want 1", i, pings)
		}
	}
}

func TestPongDeadlineCoversSubscribePhase(t *testing.T) {
	st := state.New(10)

	var mu sync.Mutex
	var created []time.Time

	const subDelay = 150 * time.Millisecond

	cfg := testManagerConfig()
	cfg.PongTimeout = 200 * time.Millisecond

	m := NewManager(cfg, st, nil)
	m.newClient = func(ClientConfig, *slog.Logger) Client {
		fc := newFakeClient(false) // never answers pings
		fc.subDelay = subDelay
		mu.Lock()
		created = append(created, time.Now())
		mu.Unlock()
		return fc
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopManager(t, m)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(created) >= 2
	}, "reconnect after missed pong")

	mu.Lock()
	elapsed := created[1].Sub(created[0])
	mu.Unlock()

	// The pong deadline starts at the hello ping, so the 300ms of slow
	// subscribe writes consume it entirely and the session ends as soon
	// as the read loop starts. A deadline armed only after the subscribes
	// could not expire before subscribe time plus a full PongTimeout.
	limit := 2*subDelay + cfg.PongTimeout
	if elapsed >= limit {
		t.Errorf("reconnect after %v, want under %v (deadline must span the subscribe phase)", elapsed, limit)
	}
}

func TestTransportErrorReconnects(t *testing.T) {
	st := state.New(10)

	var mu sync.Mutex
	var clients []*fakeClient

	m := NewManager(testManagerConfig(), st, nil)
	m.newClient = func(ClientConfig, *slog.Logger) Client {
		fc := newFakeClient(true)
		mu.Lock()
		clients = append(clients, fc)
		mu.Unlock()
		return fc
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stopManager(t, m)

	waitFor(t, func() bool { return m.IsConnected() }, "initial connect")

	mu.Lock()
	clients[0].errors <- context.DeadlineExceeded
	mu.Unlock()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(clients) >= 2
	}, "reconnect after transport error")
}

func stopManager(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
