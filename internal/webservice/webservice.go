// Package webservice provides the HTTP server exposing load lookups and
// sweep triggers.
package webservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/brokerlink/loadsync/internal/webservice/handlers"
	"github.com/brokerlink/loadsync/internal/webservice/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Server is a struct that holds the HTTP servers and their configuration.
type Server struct {
	httpServer    *http.Server
	metricsServer *metrics.Server
	cm            dConfigManager
	background    BackgroundRunner

	addr net.Addr
	mu   sync.RWMutex

	// This context is used to interrupt any action.
	// It must be the parent of gracefulCtx.
	ctx    context.Context
	cancel context.CancelFunc

	// This context waits for in-flight requests before interrupting.
	gracefulCtx    context.Context
	gracefulCancel context.CancelFunc
}

// StaticConfig holds the static configuration for the server.
type StaticConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxHeaderBytes int

	ListenHost string
	ListenPort int

	MetricsHost string
	MetricsPort int
}

type dConfigManager interface {
	handlers.Environments

	Load() error
	Watch(context.Context) (<-chan struct{}, <-chan error, error)
}

// BackgroundRunner is a task run alongside the server until shutdown,
// such as the sweep scheduler.
type BackgroundRunner interface {
	Run(ctx context.Context)
}

type options struct {
	background BackgroundRunner
}

// Options are the functional options for the server.
type Options func(*options)

// WithBackground attaches a background task to the server's lifecycle.
func WithBackground(b BackgroundRunner) Options {
	return func(o *options) {
		o.background = b
	}
}

// New creates a new Server instance wired to the given config manager
// and sweep runner.
func New(ctx context.Context, cm dConfigManager, runner handlers.SweepRunner, registry *prometheus.Registry, sc StaticConfig, args ...Options) (*Server, error) {
	if err := cm.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	var opts options
	for _, arg := range args {
		arg(&opts)
	}

	ctx, cancel := context.WithCancel(ctx)
	gCtx, gCancel := context.WithCancel(ctx)

	s := Server{
		cm:         cm,
		background: opts.background,
		ctx:        ctx,
		cancel:     cancel,

		gracefulCtx:    gCtx,
		gracefulCancel: gCancel}

	findLoad := handlers.NewFindLoad(cm, nil, nil)
	negotiation := handlers.NewFindLoadBeforeNegotiation(cm, nil, nil)
	syncHandler := handlers.NewSync(runner)

	mw := metrics.NewMiddleware(registry)
	mux := http.NewServeMux()
	mux.Handle("GET /find-load", mw.Monitor("find_load", findLoad))
	mux.Handle("GET /find-load-before-negotiation", mw.Monitor("find_load_before_negotiation", negotiation))
	mux.Handle("POST /find-load-before-negotiation", mw.Monitor("find_load_before_negotiation_post", negotiation))
	mux.Handle("GET /sync-pre-shipment", mw.Monitor("sync_pre_shipment", http.HandlerFunc(syncHandler.PreShipment)))
	mux.Handle("POST /sync-pre-shipment", mw.Monitor("sync_pre_shipment_post", http.HandlerFunc(syncHandler.PreShipment)))
	mux.Handle("GET /sync-pre-pickup", mw.Monitor("sync_pre_pickup", http.HandlerFunc(syncHandler.PrePickup)))
	mux.Handle("POST /sync-pre-pickup", mw.Monitor("sync_pre_pickup_post", http.HandlerFunc(syncHandler.PrePickup)))
	mux.Handle("GET /sync-in-transit", mw.Monitor("sync_in_transit", http.HandlerFunc(syncHandler.InTransit)))
	mux.Handle("POST /sync-in-transit", mw.Monitor("sync_in_transit_post", http.HandlerFunc(syncHandler.InTransit)))
	mux.Handle("GET /version", http.HandlerFunc(handlers.VersionHandler))
	mux.Handle("GET /health", http.HandlerFunc(handlers.HealthHandler))

	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", sc.ListenHost, sc.ListenPort),
		ReadTimeout:    sc.ReadTimeout,
		WriteTimeout:   sc.WriteTimeout,
		Handler:        http.TimeoutHandler(mux, sc.RequestTimeout, ""),
		MaxHeaderBytes: sc.MaxHeaderBytes,
	}
	s.metricsServer = metrics.NewServer(metrics.Config{
		Host:         sc.MetricsHost,
		Port:         sc.MetricsPort,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}, registry)

	return &s, nil
}

// Run starts the HTTP servers and listens for incoming requests.
func (s *Server) Run() error {
	slog.Info("Starting server", "addr", s.httpServer.Addr)

	// already asked to quit?
	select {
	case <-s.gracefulCtx.Done():
		return errors.New("server is already shutting down")
	default:
	}

	_, watchErr, err := s.cm.Watch(s.gracefulCtx)
	if err != nil {
		return fmt.Errorf("failed to start watching configuration: %v", err)
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %v", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.addr = listener.Addr()
	s.mu.Unlock()

	serverErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	metricsErr := make(chan error, 1)
	go func() {
		if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	if s.background != nil {
		go s.background.Run(s.gracefulCtx)
	}

	select {
	case <-s.gracefulCtx.Done():
		slog.Info("Graceful shutdown initiated")
		// use parent ctx so s.cancel() unblocks Shutdown immediately
		err := s.httpServer.Shutdown(s.ctx)
		if err != nil {
			slog.Error("Graceful shutdown failed", "err", err)
		}
		if mErr := s.metricsServer.Shutdown(s.ctx); mErr != nil {
			slog.Error("Metrics server shutdown failed", "err", mErr)
			err = errors.Join(err, mErr)
		}
		// now kill everything else (watchers, background jobs, etc.)
		s.cancel()
		if err == nil {
			slog.Info("Server shut down gracefully")
		}
		return err

	case err := <-serverErr:
		if err != nil {
			slog.Error("Server encountered error", "err", err)
		}
		s.metricsServer.Close()
		s.cancel()
		return err

	case err := <-metricsErr:
		if err != nil {
			slog.Error("Metrics server encountered error", "err", err)
		}
		errC := s.httpServer.Close()
		s.cancel()
		return errors.Join(err, errC)

	case err := <-watchErr:
		if err != nil {
			slog.Error("Config watcher encountered unrecoverable error", "err", err)
		}
		errC := s.httpServer.Close()
		s.metricsServer.Close()
		s.cancel()

		return errors.Join(err, errC)
	}
}

// Addr returns the address the API server is listening on, or an empty
// string before Run has bound the listener.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// MetricsAddr returns the address the metrics server is listening on.
func (s *Server) MetricsAddr() string {
	return s.metricsServer.Addr()
}

// Quit shuts down the HTTP servers gracefully.
func (s *Server) Quit(force bool) {
	defer s.cancel()

	if force {
		s.httpServer.Close()
		s.metricsServer.Close()
		s.cancel()
	} else {
		s.gracefulCancel()
	}
	slog.Info("Server quit")
}
