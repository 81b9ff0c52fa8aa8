package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mwarren/mexc-relay/internal/state"
)

// Manager supervises the upstream streaming session: one connection at a
// time, heartbeat discipline, message dispatch, and reconnect after a fixed
// delay. It never terminates the process; every failure routes back through
// the reconnect path.
type Manager struct {
	cfg    ManagerConfig
	state  *state.State
	logger *slog.Logger

	// newClient is swapped out in tests.
	newClient func(ClientConfig, *slog.Logger) Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	connected  bool
	reconnects int64
}

// ManagerStats reports the session state for health checks.
type ManagerStats struct {
	Connected  bool
	Reconnects int64
}

// NewManager creates a stream manager writing into st.
func NewManager(cfg ManagerConfig, st *state.State, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cfg:       cfg,
		state:     st,
		logger:    logger,
		newClient: NewClient,
	}
}

// Start begins the supervised session loop.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("stream manager started",
		"url", m.cfg.URL,
		"symbol", m.cfg.Symbol,
		"ping_interval", m.cfg.PingInterval,
		"pong_timeout", m.cfg.PongTimeout,
	)

	return nil
}

// Stop gracefully shuts down the manager.
func (m *Manager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("stream manager stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current session statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ManagerStats{
		Connected:  m.connected,
		Reconnects: m.reconnects,
	}
}

// IsConnected reports whether a session is currently streaming.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// run is the supervision loop: each failed session waits the fixed
// reconnect delay and tries again until shutdown.
func (m *Manager) run() {
	defer m.wg.Done()

	for {
		err := m.session()

		m.mu.Lock()
		m.connected = false
		m.mu.Unlock()

		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.logger.Warn("stream session ended, reconnecting",
			"error", err,
			"delay", m.cfg.ReconnectDelay,
		)

		m.mu.Lock()
		m.reconnects++
		m.mu.Unlock()

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(m.cfg.ReconnectDelay):
		}
	}
}

// session runs one connection lifetime: connect, probe, subscribe, then
// stream until an error, heartbeat timeout, or shutdown.
func (m *Manager) session() error {
	client := m.newClient(ClientConfig{
		URL:          m.cfg.URL,
		WriteTimeout: m.cfg.WriteTimeout,
		BufferSize:   m.cfg.BufferSize,
	}, m.logger)
	defer client.Close()

	if err := client.Connect(m.ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	// Initial heartbeat probe. The pong deadline starts the moment the
	// probe is on the wire, so slow subscribe writes count against it.
	if err := m.sendCommand(client, Command{Method: MethodPing}); err != nil {
		return fmt.Errorf("hello ping: %w", err)
	}
	pongPending := true
	pongTimer := time.NewTimer(m.cfg.PongTimeout)
	defer pongTimer.Stop()

	for _, method := range []string{MethodSubTicker, MethodSubDeal} {
		cmd := Command{Method: method, Param: SubscribeParam{Symbol: m.cfg.Symbol}}
		if err := m.sendCommand(client, cmd); err != nil {
			return fmt.Errorf("subscribe %s: %w", method, err)
		}
	}

	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()

	m.logger.Info("stream subscribed", "symbol", m.cfg.Symbol)

	pingTimer := time.NewTimer(m.cfg.PingInterval)
	defer pingTimer.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return nil

		case err := <-client.Errors():
			return err

		case <-pongTimer.C:
			if pongPending {
				return ErrPongTimeout
			}

		case <-pingTimer.C:
			// Never stack probes: an outstanding ping keeps its own
			// deadline, the next one waits for the next interval.
			if !pongPending {
				if err := m.sendCommand(client, Command{Method: MethodPing}); err != nil {
					return fmt.Errorf("ping: %w", err)
				}
				pongPending = true
				resetTimer(pongTimer, m.cfg.PongTimeout)
			}
			pingTimer.Reset(m.cfg.PingInterval)

		case msg, ok := <-client.Messages():
			if !ok {
				return ErrNotConnected
			}
			if m.dispatch(msg.Data) {
				pongPending = false
			}
		}
	}
}

// dispatch parses and applies one inbound message. It returns true when the
// message was a heartbeat acknowledgment. Malformed payloads are logged and
// dropped without ending the session.
func (m *Manager) dispatch(data []byte) (pong bool) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		m.logger.Warn("dropping malformed message", "error", err)
		return false
	}

	switch env.Channel {
	case ChannelPong:
		return true

	case ChannelSubAckTick, ChannelSubAckDeal:
		m.logger.Debug("subscription acknowledged", "channel", env.Channel)

	case ChannelError:
		m.logger.Warn("upstream error message", "data", string(env.Data))

	case ChannelPushTicker:
		var td TickerData
		if err := json.Unmarshal(env.Data, &td); err != nil {
			m.logger.Warn("dropping malformed ticker push", "error", err)
			return false
		}
		q, ok := ToQuote(&td, env.Ts)
		if !ok {
			m.logger.Debug("skipping ticker push without last price")
			return false
		}
		m.state.SetLatest(q)

	case ChannelPushDeal:
		var dd DealData
		if err := json.Unmarshal(env.Data, &dd); err != nil {
			m.logger.Warn("dropping malformed deal push", "error", err)
			return false
		}
		if deal, ok := LatestDeal(&dd); ok {
			if !m.state.ApplyDeal(deal) {
				m.logger.Debug("deal push before first quote, dropped")
			}
		}

	default:
		// Unrecognized channels are ignored.
	}

	return false
}

func (m *Manager) sendCommand(client Client, cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return client.Send(data)
}

// resetTimer re-arms a timer that may have fired without being drained.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
