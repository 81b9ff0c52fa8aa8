package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwarren/mexc-relay/internal/model"
)

// QuoteSource fetches the current quote for a symbol.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
}

// QuoteHandler receives fetched quotes.
type QuoteHandler interface {
	HandleQuote(q model.Quote)
}

// QuoteHandlerFunc is a function adapter for QuoteHandler.
type QuoteHandlerFunc func(model.Quote)

func (f QuoteHandlerFunc) HandleQuote(q model.Quote) {
	f(q)
}

// Config holds poller configuration.
type Config struct {
	Symbol   string
	Interval time.Duration // Poll interval (default: 5s)
	Timeout  time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Symbol:   "USDCUSDT",
		Interval: 5 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// Poller periodically fetches the latest quote via the REST API.
type Poller struct {
	cfg     Config
	source  QuoteSource
	handler QuoteHandler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	polls  atomic.Int64
	errors atomic.Int64
}

// New creates a new Poller.
func New(cfg Config, source QuoteSource, handler QuoteHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("quote poller started",
		"symbol", p.cfg.Symbol,
		"interval", p.cfg.Interval,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("quote poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns cumulative poll and error counts.
func (p *Poller) Stats() (polls, errors int64) {
	return p.polls.Load(), p.errors.Load()
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll fetches one quote and hands it off.
func (p *Poller) poll() {
	p.polls.Add(1)

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	q, err := p.source.FetchQuote(ctx, p.cfg.Symbol)
	if err != nil {
		p.errors.Add(1)
		p.logger.Warn("failed to poll quote",
			"symbol", p.cfg.Symbol,
			"err", err,
		)
		return
	}

	if p.handler != nil {
		p.handler.HandleQuote(q)
	}
}
