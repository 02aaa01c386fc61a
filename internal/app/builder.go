package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/ballpark/internal/api"
	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/registry"
	"github.com/stacklok/ballpark/internal/service"
	"github.com/stacklok/ballpark/internal/service/inmemory"
	"github.com/stacklok/ballpark/internal/session"
	"github.com/stacklok/ballpark/internal/sources"
	"github.com/stacklok/ballpark/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// BallparkAppOptions is a function that configures the ballpark app builder
type BallparkAppOptions func(*ballparkAppConfig) error

// ballparkAppConfig collects everything NewBallparkApp needs.
// It supports dependency injection for testing while providing sensible defaults for production
type ballparkAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	handlerFactory sources.SourceHandlerFactory
	sessionBackend sessions.Store

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// dataDir overrides config.DataDir when set
	dataDir string

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...BallparkAppOptions) (*ballparkAppConfig, error) {
	cfg := &ballparkAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewBallparkApp wires the dataset registry, dashboard service, session store and HTTP server
func NewBallparkApp(
	ctx context.Context,
	opts ...BallparkAppOptions,
) (*BallparkApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.dataDir != "" {
		cfg.config.DataDir = cfg.dataDir
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset registry: %w", err)
	}

	dashboardService, err := buildServiceComponents(cfg, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	store, err := buildSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build session store: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, dashboardService, store)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	return &BallparkApp{
		config: cfg.config,
		components: &AppComponents{
			Datasets:         reg,
			DashboardService: dashboardService,
			Sessions:         store,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithDataDirectory overrides the directory relative dataset paths are resolved against
func WithDataDirectory(dir string) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		if dir == "" {
			return fmt.Errorf("data directory cannot be empty")
		}
		cfg.dataDir = dir
		return nil
	}
}

// WithRequestTimeout sets the per-request handler timeout
func WithRequestTimeout(d time.Duration) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithHandlerFactory allows injecting a custom source handler factory (for testing)
func WithHandlerFactory(f sources.SourceHandlerFactory) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		cfg.handlerFactory = f
		return nil
	}
}

// WithSessionBackend replaces the store built from config.Session
func WithSessionBackend(s sessions.Store) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		cfg.sessionBackend = s
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP, dataset and pipeline metrics
func WithMeterProvider(mp metric.MeterProvider) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider for HTTP, registry and service spans
func WithTracerProvider(tp trace.TracerProvider) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h at /metrics
func WithMetricsHandler(h http.Handler) BallparkAppOptions {
	return func(cfg *ballparkAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildRegistry builds the memoizing dataset registry
func buildRegistry(b *ballparkAppConfig) (*registry.Registry, error) {
	slog.Info("Initializing dataset registry", "datasets", len(b.config.Datasets), "data_dir", b.config.GetDataDir())

	var opts []registry.Option
	if b.handlerFactory != nil {
		opts = append(opts, registry.WithHandlerFactory(b.handlerFactory))
	}

	if b.meterProvider != nil {
		datasetMetrics, err := telemetry.NewDatasetMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create dataset metrics: %w", err)
		}
		if datasetMetrics != nil {
			opts = append(opts, registry.WithMetrics(datasetMetrics))
			slog.Info("Dataset metrics enabled")
		}
	}

	if b.tracerProvider != nil {
		opts = append(opts, registry.WithTracer(b.tracerProvider.Tracer(registry.TracerName)))
	}

	return registry.New(b.config, opts...)
}

// buildServiceComponents builds the dashboard service over the registry
func buildServiceComponents(
	b *ballparkAppConfig,
	provider service.DatasetProvider,
) (service.DashboardService, error) {
	slog.Info("Initializing service components")

	var opts []inmemory.Option
	if b.meterProvider != nil {
		pipelineMetrics, err := telemetry.NewPipelineMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
		if pipelineMetrics != nil {
			opts = append(opts, inmemory.WithMetrics(pipelineMetrics))
			slog.Info("Pipeline metrics enabled")
		}
	}
	if b.tracerProvider != nil {
		opts = append(opts, inmemory.WithTracer(b.tracerProvider.Tracer(inmemory.ServiceTracerName)))
	}

	svc, err := inmemory.New(b.config, provider, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildSessionStore wraps the configured backend, a signed cookie store by default
func buildSessionStore(b *ballparkAppConfig) (*session.Store, error) {
	if b.sessionBackend != nil {
		return session.NewStore(b.sessionBackend), nil
	}

	backend, err := session.NewBackend(b.config.Session)
	if err != nil {
		return nil, err
	}
	slog.Info("Session store configured", "store", b.config.Session.GetStore())
	return session.NewStore(backend), nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *ballparkAppConfig,
	svc service.DashboardService,
	store *session.Store,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Instrumentation goes first so spans and metrics cover the whole chain
	if b.meterProvider != nil || b.tracerProvider != nil {
		instrument, err := telemetry.HTTPMiddleware(b.meterProvider, b.tracerProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP instrumentation: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{instrument}, b.middlewares...)
		slog.Info("HTTP instrumentation enabled",
			"metrics", b.meterProvider != nil, "tracing", b.tracerProvider != nil)
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
	}
	if store != nil {
		serverOpts = append(serverOpts, api.WithSessionStore(store))
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(svc, serverOpts...)

	// Create HTTP server
	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
