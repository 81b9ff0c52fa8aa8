package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mwarren/mexc-relay/internal/hub"
	"github.com/mwarren/mexc-relay/internal/relay"
	"github.com/mwarren/mexc-relay/internal/state"
	"github.com/mwarren/mexc-relay/internal/stream"
	"github.com/mwarren/mexc-relay/internal/version"
)

// Config holds HTTP server configuration.
type Config struct {
	Port      int
	StaticDir string // Directory with the viewer page; empty disables it.
	Symbol    string
}

// Server serves the WebSocket endpoint and the JSON API.
type Server struct {
	cfg    Config
	st     *state.State
	h      *hub.Hub
	mgr    *stream.Manager
	sched  *relay.Scheduler
	logger *slog.Logger

	engine   *gin.Engine
	httpSrv  *http.Server
	upgrader websocket.Upgrader
	started  time.Time
}

// New wires the routes. mgr and sched may be nil; the health endpoint
// then omits their sections.
func New(cfg Config, st *state.State, h *hub.Hub, mgr *stream.Manager, sched *relay.Scheduler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		st:     st,
		h:      h,
		mgr:    mgr,
		sched:  sched,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/ws", s.handleWS)
	engine.GET("/health", s.handleHealth)
	engine.GET("/api/price", s.handlePrice)
	engine.GET("/api/history", s.handleHistory)

	if cfg.StaticDir != "" {
		engine.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
		engine.Static("/static", cfg.StaticDir)
	}

	s.engine = engine
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}
	return s
}

// Handler exposes the underlying router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.started = time.Now()

	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "err", err)
		}
	}()

	s.logger.Info("http server started", "addr", s.httpSrv.Addr)
	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err, "remote", c.Request.RemoteAddr)
		return
	}

	client := hub.NewClient(conn, s.h, s.logger)
	client.Start()

	s.logger.Info("subscriber connected",
		"id", client.ID(),
		"remote", c.Request.RemoteAddr,
		"subscribers", s.h.Count(),
	)
}

func (s *Server) handlePrice(c *gin.Context) {
	q, ok := s.st.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no quote available yet"})
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symbol": s.cfg.Symbol,
		"data":   s.st.History(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	_, seeded := s.st.Latest()
	ring := s.st.HistoryStats()

	resp := gin.H{
		"status":  "ok",
		"version": version.Version,
		"symbol":  s.cfg.Symbol,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"quote": gin.H{
			"seeded":       seeded,
			"history_len":  ring.Len,
			"history_cap":  ring.Cap,
			"total_quotes": ring.TotalAppended,
		},
		"subscribers": s.h.Count(),
	}

	if s.mgr != nil {
		stats := s.mgr.Stats()
		resp["stream"] = gin.H{
			"connected":  stats.Connected,
			"reconnects": stats.Reconnects,
		}
		if !stats.Connected {
			resp["status"] = "degraded"
		}
	}
	if s.sched != nil {
		resp["broadcasts"] = s.sched.Broadcasts()
	}

	c.JSON(http.StatusOK, resp)
}
