package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwarren/mexc-relay/internal/model"
)

const (
	defaultMirrorDepth = 64
	mirrorWriteTimeout = 2 * time.Second
)

// Mirror decouples cache writes from the broadcast path. Quotes are
// offered to a bounded queue and written to Redis by a dedicated
// goroutine; when Redis lags, offers drop instead of blocking the
// caller.
type Mirror struct {
	cache  *Cache
	logger *slog.Logger
	queue  chan model.Quote

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	dropped atomic.Int64
}

// NewMirror creates a mirror feeding c. depth <= 0 uses the default
// queue depth.
func NewMirror(c *Cache, depth int, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	if depth <= 0 {
		depth = defaultMirrorDepth
	}
	return &Mirror{
		cache:  c,
		logger: logger,
		queue:  make(chan model.Quote, depth),
	}
}

// Start begins the write loop.
func (m *Mirror) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("cache mirror started", "queue_depth", cap(m.queue))
	return nil
}

// Stop shuts the write loop down; quotes still queued are discarded.
func (m *Mirror) Stop(ctx context.Context) error {
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
		m.logger.Info("cache mirror stopped", "dropped", m.dropped.Load())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Offer enqueues a quote without blocking. A full queue drops the quote;
// the mirror is best effort and must never stall the broadcast cadence.
func (m *Mirror) Offer(q model.Quote) {
	select {
	case m.queue <- q:
	default:
		m.dropped.Add(1)
	}
}

// Dropped returns the number of quotes discarded due to a full queue.
func (m *Mirror) Dropped() int64 {
	return m.dropped.Load()
}

func (m *Mirror) run() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case q := <-m.queue:
			ctx, cancel := context.WithTimeout(m.ctx, mirrorWriteTimeout)
			if err := m.cache.SetLatest(ctx, q); err != nil {
				m.logger.Debug("cache mirror write failed", "error", err)
			}
			cancel()
		}
	}
}
