package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwarren/mexc-relay/internal/api"
	"github.com/mwarren/mexc-relay/internal/cache"
	"github.com/mwarren/mexc-relay/internal/config"
	"github.com/mwarren/mexc-relay/internal/hub"
	"github.com/mwarren/mexc-relay/internal/model"
	"github.com/mwarren/mexc-relay/internal/poller"
	"github.com/mwarren/mexc-relay/internal/relay"
	"github.com/mwarren/mexc-relay/internal/server"
	"github.com/mwarren/mexc-relay/internal/state"
	"github.com/mwarren/mexc-relay/internal/stream"
	"github.com/mwarren/mexc-relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration; fall back to defaults when no file is present.
	var cfg *config.RelayConfig
	if _, err := os.Stat(*configPath); err == nil {
		cfg, err = config.LoadAndValidate(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("config file not found, using defaults", "path", *configPath)
		cfg = config.Default()
	}

	logger.Info("configuration loaded",
		"symbol", cfg.Symbol,
		"rest_url", cfg.API.RestURL,
		"stream_url", cfg.Stream.URL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	st := state.New(cfg.Relay.MaxHistory)

	// Create API client and seed the initial quote. A failed seed is not
	// fatal; the stream fills the slot once connected.
	apiClient := api.NewClient(
		cfg.API.RestURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(3, time.Second),
	)

	seedCtx, seedCancel := context.WithTimeout(ctx, 15*time.Second)
	if q, err := apiClient.FetchQuote(seedCtx, cfg.Symbol); err != nil {
		logger.Warn("initial quote fetch failed", "symbol", cfg.Symbol, "error", err)
	} else {
		st.SetLatest(q)
		logger.Info("initial quote fetched", "symbol", q.Symbol, "price", q.Price)
	}
	seedCancel()

	h := hub.NewHub(st, logger)

	// Optional Redis mirror. Writes run on their own goroutine behind a
	// bounded queue so Redis latency never touches the broadcast cadence.
	var quoteMirror *cache.Mirror
	if cfg.Cache.Enabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Addr = cfg.Cache.Addr
		cacheCfg.Password = cfg.Cache.Password
		cacheCfg.DB = cfg.Cache.DB
		cacheCfg.MaxHistory = cfg.Relay.MaxHistory
		quoteCache := cache.New(cacheCfg, logger)

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := quoteCache.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, cache mirroring may fail", "addr", cfg.Cache.Addr, "error", err)
		}
		pingCancel()
		defer quoteCache.Close()

		quoteMirror = cache.NewMirror(quoteCache, 0, logger)
		if err := quoteMirror.Start(ctx); err != nil {
			logger.Error("failed to start cache mirror", "error", err)
			os.Exit(1)
		}
	}

	// Rebroadcast loop: fan out to the hub and offer to the cache mirror.
	sink := relay.BroadcasterFunc(func(q model.Quote) {
		h.Broadcast(q)
		if quoteMirror != nil {
			quoteMirror.Offer(q)
		}
	})

	sched := relay.New(relay.Config{
		Interval:    cfg.Relay.BroadcastInterval,
		Granularity: cfg.Relay.TickGranularity,
	}, st, sink, logger)

	// Upstream stream manager.
	mgr := stream.NewManager(stream.ManagerConfig{
		URL:            cfg.Stream.URL,
		Symbol:         cfg.Symbol,
		PingInterval:   cfg.Stream.PingInterval,
		PongTimeout:    cfg.Stream.PongTimeout,
		ReconnectDelay: cfg.Stream.ReconnectDelay,
		WriteTimeout:   cfg.Stream.WriteTimeout,
		BufferSize:     cfg.Stream.BufferSize,
	}, st, logger)

	if err := mgr.Start(ctx); err != nil {
		logger.Error("failed to start stream manager", "error", err)
		os.Exit(1)
	}

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start rebroadcast loop", "error", err)
		os.Exit(1)
	}

	// REST fallback poller, off unless enabled in config.
	var quotePoller *poller.Poller
	if cfg.Poller.Enabled {
		quotePoller = poller.New(poller.Config{
			Symbol:   cfg.Symbol,
			Interval: cfg.Poller.Interval,
			Timeout:  cfg.API.Timeout,
		}, apiClient, poller.QuoteHandlerFunc(st.SetLatest), logger)

		if err := quotePoller.Start(ctx); err != nil {
			logger.Error("failed to start poller", "error", err)
			os.Exit(1)
		}
	}

	srv := server.New(server.Config{
		Port:      cfg.Server.Port,
		StaticDir: cfg.Server.StaticDir,
		Symbol:    cfg.Symbol,
	}, st, h, mgr, sched, logger)

	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start http server", "error", err)
		os.Exit(1)
	}

	logger.Info("relay running",
		"symbol", cfg.Symbol,
		"port", cfg.Server.Port,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", "error", err)
	}
	if quotePoller != nil {
		if err := quotePoller.Stop(shutdownCtx); err != nil {
			logger.Warn("poller shutdown failed", "error", err)
		}
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("rebroadcast loop shutdown failed", "error", err)
	}
	if quoteMirror != nil {
		if err := quoteMirror.Stop(shutdownCtx); err != nil {
			logger.Warn("cache mirror shutdown failed", "error", err)
		}
	}
	if err := mgr.Stop(shutdownCtx); err != nil {
		logger.Warn("stream manager shutdown failed", "error", err)
	}

	logger.Info("relay stopped")
}
