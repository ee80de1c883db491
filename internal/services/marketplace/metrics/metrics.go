// Package metrics exports marketplace counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/platform/timeouts"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/event"
)

const namespace = "marketplace"

// OutcomeOK labels successful operations.
const OutcomeOK = "ok"

// Metrics owns a private registry so multiple instances can coexist.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	events     *prometheus.CounterVec
}

// New registers the marketplace collectors plus Go runtime and process metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Marketplace mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed marketplace events by type.",
		}, []string{"type"}),
	}
}

// ObserveOperation counts one mutation. Failures are labelled with their
// lower-cased error code, or "error" for uncoded failures.
func (m *Metrics) ObserveOperation(operation string, err error) {
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveEvent counts one committed event.
func (m *Metrics) ObserveEvent(evt event.Event) {
	m.events.WithLabelValues(string(evt.Type)).Inc()
}

// Outcome maps an operation error to its metric label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	if code := apperrors.GetCode(err); code != apperrors.CodeUnknown {
		return strings.ToLower(string(code))
	}
	return "error"
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Server serves /metrics on its own listener.
type Server struct {
	listener net.Listener
	http     *http.Server
	logger   *zap.Logger
}

// Listen binds addr for the metrics endpoint.
func (m *Metrics) Listen(addr string, logger *zap.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		listener: listener,
		http:     &http.Server{Handler: mux, ReadHeaderTimeout: timeouts.ReadHeader},
		logger:   logger,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve runs until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("metrics listening", zap.String("addr", s.Addr()))
		errCh <- s.http.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close stops the endpoint immediately and releases the listener.
func (s *Server) Close() error {
	err := s.http.Close()
	if lerr := s.listener.Close(); lerr != nil && !errors.Is(lerr, net.ErrClosed) && err == nil {
		err = lerr
	}
	return err
}
