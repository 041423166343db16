package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	tqerrors "github.com/vango-go/tablequery/internal/errors"
	"github.com/vango-go/tablequery/pkg/middleware"
	"github.com/vango-go/tablequery/pkg/tablequery"
)

// Server serves the codec over HTTP and the live channel.
type Server struct {
	config   *Config
	codec    *tablequery.Codec
	router   chi.Router
	upgrader websocket.Upgrader

	metrics  *middleware.Metrics
	registry *prometheus.Registry

	mu         sync.Mutex
	sessions   map[*Session]struct{}
	httpServer *http.Server

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger    *slog.Logger
	codecOpts []tablequery.Option
	registry  *prometheus.Registry
	otelOpts  []middleware.OTelOption
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

// WithCodecOptions configures the codec the server builds.
func WithCodecOptions(opts ...tablequery.Option) Option {
	return func(o *serverOptions) {
		o.codecOpts = append(o.codecOpts, opts...)
	}
}

// WithRegistry sets the Prometheus registry (default: a fresh registry).
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *serverOptions) {
		o.registry = reg
	}
}

// WithTracingOptions adds options for the OpenTelemetry middleware.
func WithTracingOptions(opts ...middleware.OTelOption) Option {
	return func(o *serverOptions) {
		o.otelOpts = append(o.otelOpts, opts...)
	}
}

// New creates a new Server. A nil config uses DefaultConfig.
func New(config *Config, opts ...Option) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()

	o := serverOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		sessions: make(map[*Session]struct{}),
		logger:   logger,
	}

	codecOpts := append([]tablequery.Option{
		tablequery.WithLogger(logger.With("component", "tablequery")),
	}, o.codecOpts...)

	if config.MetricsEnabled {
		s.registry = o.registry
		if s.registry == nil {
			s.registry = prometheus.NewRegistry()
		}
		s.metrics = middleware.Prometheus(
			middleware.WithNamespace(config.MetricsNamespace),
			middleware.WithRegistry(s.registry),
		)
		codecOpts = append(codecOpts, tablequery.WithObserver(s.metrics))
	}
	s.codec = tablequery.New(codecOpts...)

	otelOpts := append([]middleware.OTelOption{
		middleware.WithTracerName(config.TracerName),
	}, o.otelOpts...)
	s.router = s.routes(otelOpts)
	return s
}

func (s *Server) routes(otelOpts []middleware.OTelOption) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.metrics.Handler)
	}
	if s.config.TracingEnabled {
		r.Use(middleware.OpenTelemetry(otelOpts...))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, tqerrors.Newf(tqerrors.CategoryInput, "no route for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	})

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Get("/ws", s.handleLive)
	r.Get("/client.js", handleClientJS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/encode", s.handleEncode)
		r.Post("/select-all", s.handleSelectAll)
		r.Post("/reconcile", s.handleReconcile)
	})
	return r
}

// logRequests logs one line per request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Codec returns the codec used by the server.
func (s *Server) Codec() *tablequery.Codec {
	return s.codec
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return tqerrors.New("T140").
			WithInput(s.config.Address).
			WithSuggestion("Choose a free address with --addr or server.address").
			Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return tqerrors.New("T140").Wrap(err)

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.WithoutCancel(ctx))
	}
}

// Shutdown closes live sessions and gracefully shuts down the HTTP server
// within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close(websocket.CloseGoingAway, "server shutting down")
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			if errors.Is(err, context.DeadlineExceeded) {
				return tqerrors.New("T141").Wrap(err)
			}
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// SessionCount returns the number of open live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) addSession(sess *Session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.RecordSessionOpen()
	}
}

func (s *Server) removeSession(sess *Session) {
	s.mu.Lock()
	_, ok := s.sessions[sess]
	delete(s.sessions, sess)
	s.mu.Unlock()
	if ok && s.metrics != nil {
		s.metrics.RecordSessionClose()
	}
}
