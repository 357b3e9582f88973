// Package metrics instruments the web service for Prometheus and serves
// the scrape endpoint on its own listener.
package metrics

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ctxKey string

// pathKey carries the request path through the context so the promhttp
// instrumentation can label observations with it.
const pathKey ctxKey = "path"

// Middleware instruments HTTP handlers with request metrics.
type Middleware struct {
	registry prometheus.Registerer
	buckets  []float64
}

// NewMiddleware creates a Middleware registering on the given registry.
func NewMiddleware(registry prometheus.Registerer) *Middleware {
	return &Middleware{
		registry: registry,
		// Request durations skew small unless something is wrong. Max of 10.24s.
		buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}
}

// Monitor wraps a handler with request counting and latency tracking,
// partitioned by method, status code and path.
func (m *Middleware) Monitor(handlerName string, handler http.Handler) http.Handler {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"handler": handlerName}, m.registry)
	labels := []string{"method", "code", string(pathKey)}

	requestsTotal := promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Tracks the number of HTTP requests.",
		}, labels,
	)
	requestDuration := promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Tracks the latencies for HTTP requests.",
			Buckets: m.buckets,
		}, labels,
	)

	instrumented := promhttp.InstrumentHandlerCounter(
		requestsTotal,
		promhttp.InstrumentHandlerDuration(
			requestDuration,
			handler,
			promhttp.WithLabelFromCtx(string(pathKey), pathFromCtx),
		),
		promhttp.WithLabelFromCtx(string(pathKey), pathFromCtx),
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), pathKey, r.URL.Path)
		instrumented.ServeHTTP(w, r.WithContext(ctx))
	})
}

func pathFromCtx(ctx context.Context) string {
	if path, ok := ctx.Value(pathKey).(string); ok {
		return path
	}
	return "unknown"
}

// Server serves the Prometheus scrape endpoint on a dedicated listener.
type Server struct {
	httpServer *http.Server

	addr net.Addr
	mu   sync.RWMutex
}

// Config holds the configuration for the metrics server.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer creates a metrics server exposing the given gatherer on /metrics.
func NewServer(cfg Config, reg prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// ListenAndServe starts the HTTP server and listens for incoming requests.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.addr = listener.Addr()
	s.mu.Unlock()

	return s.httpServer.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Close stops the server.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

// Addr returns the address the server is listening on, or an empty
// string before ListenAndServe has bound the listener.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}
