package echoserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Config configures the echo server.
type Config struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string

	// Path is the WebSocket route.
	// Default: "/ws"
	Path string

	// Rate is the number of upgrades allowed per second.
	// Default: 20
	Rate float64

	// Burst is the number of upgrades allowed at once.
	// Default: 40
	Burst int

	// ReadLimit is the largest message accepted from a client.
	// Default: 1MB
	ReadLimit int64

	// WriteTimeout bounds each echoed frame.
	// Default: 10 seconds
	WriteTimeout time.Duration

	// ShutdownTimeout bounds Shutdown when the caller's context has no deadline.
	// Default: 5 seconds
	ShutdownTimeout time.Duration

	// CheckOrigin validates the Origin header. Default: accept any origin.
	CheckOrigin func(r *http.Request) bool

	// Registry receives the server metrics. Default: a private registry.
	Registry *prometheus.Registry

	// Logger receives server logs. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		Path:            "/ws",
		Rate:            20,
		Burst:           40,
		ReadLimit:       1 << 20,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	merged := *c
	if merged.Addr == "" {
		merged.Addr = out.Addr
	}
	if merged.Path == "" {
		merged.Path = out.Path
	}
	if merged.Rate == 0 {
		merged.Rate = out.Rate
	}
	if merged.Burst == 0 {
		merged.Burst = out.Burst
	}
	if merged.ReadLimit == 0 {
		merged.ReadLimit = out.ReadLimit
	}
	if merged.WriteTimeout == 0 {
		merged.WriteTimeout = out.WriteTimeout
	}
	if merged.ShutdownTimeout == 0 {
		merged.ShutdownTimeout = out.ShutdownTimeout
	}
	return &merged
}

// Server is a rate-limited WebSocket echo server.
type Server struct {
	config   *Config
	router   chi.Router
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	metrics  *serverMetrics
	registry *prometheus.Registry
	logger   *slog.Logger

	mu         sync.Mutex
	conns      map[*websocket.Conn]struct{}
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New creates a Server. It does not listen until Run or Serve is called.
func New(config *Config) *Server {
	cfg := config.withDefaults()

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	s := &Server{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		metrics:  newServerMetrics(registry),
		registry: registry,
		logger:   logger.With("component", "echoserver"),
		conns:    make(map[*websocket.Conn]struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.With(s.rateLimit).Get(cfg.Path, s.handleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.router = r
	s.httpServer = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the server's routes for mounting in tests or other routers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the registry holding the server metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// rateLimit rejects upgrades beyond the configured rate with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.metrics.upgrade("limited")
			retry := time.Second
			if s.config.Rate > 0 {
				retry = time.Duration(float64(time.Second) / s.config.Rate)
			}
			secs := int(retry.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.metrics.upgrade("failed")
		s.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.metrics.upgrade("ok")

	if !s.track(conn) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	s.echo(conn, r.RemoteAddr)
}

// echo copies every data frame back to the client until the connection ends.
func (s *Server) echo(conn *websocket.Conn, remote string) {
	conn.SetReadLimit(s.config.ReadLimit)
	logger := s.logger.With("remote", remote)
	logger.Debug("client connected")

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read failed", "error", err)
			}
			break
		}

		_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := conn.WriteMessage(mt, data); err != nil {
			logger.Debug("write failed", "error", err)
			break
		}
		s.metrics.echoed(mt)
	}

	logger.Debug("client disconnected")
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	s.metrics.connections.Inc()
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	_ = conn.Close()
	s.mu.Lock()
	if s.conns != nil {
		delete(s.conns, conn)
	}
	s.mu.Unlock()
	s.metrics.connections.Dec()
	s.wg.Done()
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("server starting", "address", l.Addr().String(), "path", s.config.Path)
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting connections, sends a going-away close frame to
// every client and waits for their handlers to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		for conn := range conns {
			_ = conn.Close()
		}
		if err == nil {
			err = ctx.Err()
		}
	}

	s.logger.Info("server shutdown complete")
	return err
}
