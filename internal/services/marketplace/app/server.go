// Package server wires the marketplace runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	apperrors "github.com/joshorndorff/marketplace/internal/platform/errors"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/api/grpc/auth"
	grpcmarketplace "github.com/joshorndorff/marketplace/internal/services/marketplace/api/grpc/marketplace"
	grpcmeta "github.com/joshorndorff/marketplace/internal/services/marketplace/api/grpc/metadata"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/listing"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/market"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation/beta"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/domain/reputation/cumulative"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/eventbus"
	"github.com/joshorndorff/marketplace/internal/services/marketplace/metrics"
	marketsqlite "github.com/joshorndorff/marketplace/internal/services/marketplace/storage/sqlite"
)

// Reputation engines selectable at startup.
const (
	EngineCumulative = "cumulative"
	EngineBeta       = "beta"
)

// Config holds server runtime settings.
type Config struct {
	Addr string
	// DBPath defaults to data/marketplace.db.
	DBPath string
	// JournalDisabled keeps all state in memory.
	JournalDisabled  bool
	ReputationEngine string
	// TokenKey is the HS256 key for caller tokens.
	TokenKey    string
	MetricsAddr string
	Logger      *zap.Logger
}

func (c Config) normalized() Config {
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = filepath.Join("data", "marketplace.db")
	}
	c.ReputationEngine = strings.ToLower(strings.TrimSpace(c.ReputationEngine))
	if c.ReputationEngine == "" {
		c.ReputationEngine = EngineCumulative
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Server hosts the marketplace gRPC API, its journal and its metrics endpoint.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *marketsqlite.Store
	bus        *eventbus.Bus
	metrics    *metrics.Server
	logger     *zap.Logger
}

// runtime holds the engine-specific pieces behind engine-neutral funcs.
type runtime struct {
	service grpcmarketplace.MarketplaceServer
	replay  func(ctx context.Context, source market.EventSource) (market.ReplayResult, error)
	nextID  func() (listing.ID, error)
}

func newRuntime[S any](port reputation.Port[listing.AccountID, reputation.Feedback, S], encode grpcmarketplace.ScoreEncoder[S], ratings grpcmarketplace.Ratings, opts ...market.Option) (runtime, error) {
	m, err := market.New[reputation.Feedback, S](port, opts...)
	if err != nil {
		return runtime{}, err
	}
	service := grpcmarketplace.NewService[S](m, encode)
	if ratings != nil {
		service.WithRatings(ratings)
	}
	return runtime{
		service: service,
		replay: func(ctx context.Context, source market.EventSource) (market.ReplayResult, error) {
			return m.Replay(ctx, source, market.ReplayOptions{VerifyChain: true})
		},
		nextID: m.NextID,
	}, nil
}

// buildRuntime assembles the market for engine. ratings may be nil.
func buildRuntime(engine string, ratings grpcmarketplace.Ratings, opts ...market.Option) (runtime, error) {
	switch engine {
	case EngineCumulative:
		return newRuntime[int32](cumulative.New[listing.AccountID](), grpcmarketplace.CumulativeScore, ratings, opts...)
	case EngineBeta:
		return newRuntime[beta.Fraction](beta.New[listing.AccountID](), grpcmarketplace.BetaScore, ratings, opts...)
	default:
		return runtime{}, apperrors.WithMetadata(apperrors.CodeReputationEngineUnsupported,
			fmt.Sprintf("unsupported reputation engine %q", engine),
			map[string]string{"Engine": engine})
	}
}

// New opens storage, rebuilds the market from the journal and binds the
// gRPC listener. The metrics listener is bound only when MetricsAddr is set.
func New(ctx context.Context, cfg Config) (*Server, error) {
	cfg = cfg.normalized()
	logger := cfg.Logger
	tokens, err := auth.NewTokens([]byte(cfg.TokenKey), nil)
	if err != nil {
		return nil, fmt.Errorf("MARKETPLACE_TOKEN_KEY: %w", err)
	}

	s := &Server{logger: logger, bus: eventbus.New(logger.Named("eventbus"))}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	recorder := metrics.New()
	if err := s.bus.Subscribe(eventbus.TopicAll, recorder.ObserveEvent); err != nil {
		return nil, err
	}
	if err := s.bus.LogEvents(); err != nil {
		return nil, err
	}
	opts := []market.Option{
		market.WithPublisher(s.bus),
		market.WithOutcomeRecorder(recorder),
		market.WithLogger(logger.Named("market")),
	}
	var ratings grpcmarketplace.Ratings
	if !cfg.JournalDisabled {
		store, err := openMarketplaceStore(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s.store = store
		ratings = store
		opts = append(opts, market.WithJournal(store))
	}

	rt, err := buildRuntime(cfg.ReputationEngine, ratings, opts...)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := restore(ctx, rt, s.store, logger); err != nil {
			return nil, err
		}
	}

	if cfg.MetricsAddr != "" {
		s.metrics, err = recorder.Listen(cfg.MetricsAddr, logger.Named("metrics"))
		if err != nil {
			return nil, fmt.Errorf("listen metrics on %s: %w", cfg.MetricsAddr, err)
		}
	}
	s.listener, err = net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	s.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcmeta.UnaryServerInterceptor(nil),
			auth.UnaryServerInterceptor(tokens, grpcmarketplace.IsMutation),
			grpcmeta.LoggingUnaryServerInterceptor(logger.Named("grpc")),
		),
	)
	s.health = health.NewServer()
	grpcmarketplace.RegisterMarketplaceServer(s.grpcServer, rt.service)
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(grpcmarketplace.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	logger.Info("marketplace ready",
		zap.String("engine", cfg.ReputationEngine),
		zap.Bool("journal", s.store != nil))
	ok = true
	return s, nil
}

// journalState is the read side of the journal restore consults.
type journalState interface {
	market.EventSource
	LatestSeq(ctx context.Context) (uint64, error)
	NextID(ctx context.Context) (listing.ID, error)
}

// restore replays the journal, then checks that replay reached the journal
// head and that the projected allocator agrees with the replayed one.
func restore(ctx context.Context, rt runtime, journal journalState, logger *zap.Logger) error {
	result, err := rt.replay(ctx, journal)
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}
	latest, err := journal.LatestSeq(ctx)
	if err != nil {
		return fmt.Errorf("read journal head: %w", err)
	}
	if latest != result.LastSeq {
		return fmt.Errorf("replay stopped at seq %d, journal head is %d", result.LastSeq, latest)
	}
	projected, err := journal.NextID(ctx)
	if err != nil {
		return fmt.Errorf("read projected next id: %w", err)
	}
	next, err := rt.nextID()
	switch {
	case apperrors.IsCode(err, apperrors.CodeListingIDExhausted):
		logger.Warn("listing id space exhausted")
	case err != nil:
		return err
	case projected != next:
		logger.Warn("projection next id differs from replayed state",
			zap.Uint32("projected", uint32(projected)),
			zap.Uint32("replayed", uint32(next)))
	}
	logger.Info("journal replayed",
		zap.Uint64("last_seq", result.LastSeq),
		zap.Int("applied", result.Applied))
	return nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// MetricsAddr returns the metrics listener address, or "" when disabled.
func (s *Server) MetricsAddr() string {
	if s == nil || s.metrics == nil {
		return ""
	}
	return s.metrics.Addr()
}

// Run creates and serves a marketplace server until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.logger.Info("marketplace server listening", zap.String("addr", s.Addr()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	metricsErr := make(chan error, 1)
	if s.metrics != nil {
		go func() {
			metricsErr <- s.metrics.Serve(metricsCtx)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err = <-serveErr
	case err = <-serveErr:
	case err = <-metricsErr:
		if err != nil {
			err = fmt.Errorf("serve metrics: %w", err)
		}
		s.grpcServer.GracefulStop()
		<-serveErr
		return err
	}
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.metrics != nil {
		_ = s.metrics.Close()
	}
	if s.bus != nil {
		s.bus.WaitAsync()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close marketplace store", zap.Error(err))
		}
		s.store = nil
	}
}

func openMarketplaceStore(ctx context.Context, path string) (*marketsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := marketsqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open marketplace sqlite store: %w", err)
	}
	return store, nil
}
