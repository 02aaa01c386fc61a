package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers for the lifetime of the server
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	promRegistry   *prometheus.Registry
	shutdown       []func(context.Context) error
}

// New builds the providers described by cfg and installs them as the otel globals.
// A nil or disabled cfg yields no-op providers. Call Shutdown to flush on exit.
func New(ctx context.Context, cfg *Config) (*Telemetry, error) {
	t := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}
	s := cfg.resolve()
	if !s.tracing && !s.metrics {
		slog.Debug("Telemetry disabled")
		return t, nil
	}

	res, err := newResource(ctx, s)
	if err != nil {
		return nil, err
	}

	if s.tracing {
		tp, err := newTracerProvider(ctx, s, res)
		if err != nil {
			return nil, err
		}
		t.tracerProvider = tp
		t.shutdown = append(t.shutdown, tp.Shutdown)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagator)
	}

	if s.metrics {
		if s.prometheus {
			t.promRegistry = prometheus.NewRegistry()
		}
		mp, err := newMeterProvider(ctx, s, res, t.promRegistry)
		if err != nil {
			return nil, errors.Join(err, t.Shutdown(ctx))
		}
		t.meterProvider = mp
		t.shutdown = append(t.shutdown, mp.Shutdown)
		otel.SetMeterProvider(mp)
	}

	if s.insecure {
		slog.Warn("Telemetry is exported over plain HTTP")
	}
	slog.Info("Telemetry initialized",
		"service_name", s.serviceName,
		"service_version", s.serviceVersion,
		"endpoint", s.endpoint,
		"tracing", s.tracing,
		"sampling_ratio", s.sampling,
		"metrics", s.metrics,
		"prometheus", s.prometheus,
	)
	return t, nil
}

// TracerProvider returns the tracer provider, a no-op one when tracing is off
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider, a no-op one when metrics are off
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil when scraping is disabled
func (t *Telemetry) MetricsHandler() http.Handler {
	if t.promRegistry == nil {
		return nil
	}
	return promhttp.HandlerFor(t.promRegistry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the providers. Later calls are no-ops.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	fns := t.shutdown
	t.shutdown = nil

	var errs []error
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}
