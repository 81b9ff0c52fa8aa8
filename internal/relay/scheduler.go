// Package relay implements the fixed-rate rebroadcast loop. It samples the
// latest quote on a steady cadence and pushes it to the fan-out hub,
// decoupling what subscribers see from upstream arrival jitter: bursts are
// thinned to one quote per tick and silent stretches repeat the last quote.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mwarren/mexc-relay/internal/model"
	"github.com/mwarren/mexc-relay/internal/state"
)

// Broadcaster receives each quote the scheduler emits.
type Broadcaster interface {
	Broadcast(q model.Quote)
}

// BroadcasterFunc is a function adapter for Broadcaster.
type BroadcasterFunc func(model.Quote)

func (f BroadcasterFunc) Broadcast(q model.Quote) { f(q) }

// Config holds scheduler configuration.
type Config struct {
	Interval    time.Duration // Target broadcast cadence
	Granularity time.Duration // Clock check granularity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    100 * time.Millisecond,
		Granularity: 10 * time.Millisecond,
	}
}

// Scheduler runs the rebroadcast loop against the shared state.
type Scheduler struct {
	cfg    Config
	state  *state.State
	sink   Broadcaster
	logger *slog.Logger

	// Injectable clock for tests.
	now   func() time.Time
	ticks <-chan time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	lastBroadcast time.Time
	broadcasts    int64
}

// New creates a scheduler that samples st and hands quotes to sink.
func New(cfg Config, st *state.State, sink Broadcaster, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cfg:    cfg,
		state:  st,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the rebroadcast loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("rebroadcast scheduler started",
		"interval", s.cfg.Interval,
		"granularity", s.cfg.Granularity,
	)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("rebroadcast scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Broadcasts returns the number of quotes emitted so far.
func (s *Scheduler) Broadcasts() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcasts
}

// run checks the clock at tick granularity and emits once per interval.
// The fine-grained timer keeps the cadence close to the target without a
// busy sleep-poll.
func (s *Scheduler) run() {
	defer s.wg.Done()

	ticks := s.ticks
	if ticks == nil {
		ticker := time.NewTicker(s.cfg.Granularity)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticks:
			s.tick()
		}
	}
}

// tick emits the current quote if one exists and the interval has elapsed.
func (s *Scheduler) tick() {
	q, ok := s.state.Latest()
	if !ok {
		// Nothing has been produced yet; emit nothing.
		return
	}

	now := s.now()

	s.mu.Lock()
	if !s.lastBroadcast.IsZero() && now.Sub(s.lastBroadcast) < s.cfg.Interval {
		s.mu.Unlock()
		return
	}
	s.lastBroadcast = now
	s.broadcasts++
	s.mu.Unlock()

	stamped := q.Stamped(now.UnixMilli(), s.cfg.Interval.String())
	s.state.Record(stamped)
	s.sink.Broadcast(stamped)
}
