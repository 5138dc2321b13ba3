package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Aman-CERP/livedoc/internal/cache"
	"github.com/Aman-CERP/livedoc/internal/telemetry"
)

const (
	// DefaultHost binds to loopback only.
	DefaultHost = "127.0.0.1"
	// DefaultPort matches the port the live view has always used.
	DefaultPort = 5000

	// MaxSearchLimit caps the limit parameter of /search.
	MaxSearchLimit = 200

	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Host    string
	Port    int
	Version string
	Logger  *slog.Logger

	// Metrics records /search queries. Nil disables recording.
	Metrics *telemetry.QueryMetrics
}

// Server serves one cache.Store over HTTP.
type Server struct {
	store   *cache.Store
	mux     *http.ServeMux
	page    *template.Template
	addr    string
	version string
	logger  *slog.Logger
	metrics *telemetry.QueryMetrics

	// done is closed on Shutdown so hijacked websocket connections end too.
	done     chan struct{}
	doneOnce sync.Once

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a Server for store.
func New(store *cache.Store, opts Options) (*Server, error) {
	if store == nil {
		return nil, errors.New("server needs a cache store")
	}
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	page, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	s := &Server{
		store:   store,
		mux:     http.NewServeMux(),
		page:    page,
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		version: opts.Version,
		logger:  logger,
		metrics: opts.Metrics,
		done:    make(chan struct{}),
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return chain(
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)(s.mux)
}

// Addr returns the configured listen address, or the bound one once
// ListenAndServe has started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("http server started", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, ends websocket feeds and waits for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("http server shutting down")
	return srv.Shutdown(ctx)
}
