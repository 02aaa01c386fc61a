package telemetry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/ballpark/internal/otel"
)

const (
	// HTTPInstrumentationName names the HTTP tracer and meter
	HTTPInstrumentationName = "github.com/stacklok/ballpark/http"

	unknownRoute = "unknown_route"
)

// propagator reads and writes W3C trace context and baggage headers
var propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

type httpInstruments struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

func newHTTPInstruments(provider metric.MeterProvider) (*httpInstruments, error) {
	meter := provider.Meter(HTTPInstrumentationName)

	duration, err := meter.Float64Histogram(
		"ballpark_http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}
	requests, err := meter.Int64Counter(
		"ballpark_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter(
		"ballpark_http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpInstruments{duration: duration, requests: requests, inFlight: inFlight}, nil
}

// HTTPMiddleware returns middleware that opens a server span per request and records
// request metrics labelled by chi route pattern. Either provider may be nil; with both
// nil the middleware passes requests through untouched.
//
// It must be installed with chi's Use so the route pattern and URL params are known
// once the handler returns.
func HTTPMiddleware(mp metric.MeterProvider, tp trace.TracerProvider) (func(http.Handler) http.Handler, error) {
	var instruments *httpInstruments
	if mp != nil {
		var err error
		if instruments, err = newHTTPInstruments(mp); err != nil {
			return nil, err
		}
	}
	var tracer trace.Tracer
	if tp != nil {
		tracer = tp.Tracer(HTTPInstrumentationName)
	}

	if instruments == nil && tracer == nil {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			var span trace.Span
			if tracer != nil {
				ctx = propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
				ctx, span = tracer.Start(ctx, r.Method+" "+r.URL.Path,
					trace.WithSpanKind(trace.SpanKindServer),
					trace.WithAttributes(
						semconv.HTTPRequestMethodKey.String(r.Method),
						semconv.URLPath(r.URL.Path),
						semconv.UserAgentOriginal(r.UserAgent()),
					),
				)
				defer span.End()
			}

			if instruments != nil {
				instruments.inFlight.Add(ctx, 1)
			}
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := routePattern(r)
			status := ww.Status()

			if instruments != nil {
				instruments.inFlight.Add(ctx, -1)
				attrs := metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
					attribute.String("status_code", strconv.Itoa(status)),
				)
				instruments.duration.Record(ctx, time.Since(start).Seconds(), attrs)
				instruments.requests.Add(ctx, 1, attrs)
			}

			if span != nil {
				span.SetName(r.Method + " " + route)
				span.SetAttributes(semconv.HTTPRouteKey.String(route), semconv.HTTPResponseStatusCode(status))
				if attr, ok := resourceAttribute(r, route); ok {
					span.SetAttributes(attr)
				}
				if status >= http.StatusInternalServerError {
					span.SetStatus(codes.Error, http.StatusText(status))
				}
			}
		})
	}, nil
}

// routePattern returns the matched chi pattern, never the raw path, to bound cardinality
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unknownRoute
}

// resourceAttribute tags panel and dataset requests with the id they address
func resourceAttribute(r *http.Request, route string) (attribute.KeyValue, bool) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return attribute.KeyValue{}, false
	}
	id := rctx.URLParam("id")
	if id == "" {
		return attribute.KeyValue{}, false
	}
	switch {
	case strings.Contains(route, "/panels/"):
		return otel.AttrPanelID.String(id), true
	case strings.Contains(route, "/datasets/"):
		return otel.AttrDatasetID.String(id), true
	default:
		return attribute.KeyValue{}, false
	}
}
