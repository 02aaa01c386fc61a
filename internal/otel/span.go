// Package otel provides OpenTelemetry instrumentation utilities for the ballpark server.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for business context used across the application.
// Using shared keys ensures consistent attribute naming in traces.
const (
	AttrDatasetID     = attribute.Key("dataset.id")
	AttrDatasetFormat = attribute.Key("dataset.format")
	AttrPanelID       = attribute.Key("panel.id")
	AttrTeam          = attribute.Key("filter.team")
	AttrThreshold     = attribute.Key("filter.threshold")
	AttrRowCount      = attribute.Key("result.rows")
	AttrNoticeCount   = attribute.Key("result.notices")
)

// FilterAttributes describes the active filter criteria. Unset criteria are omitted.
func FilterAttributes(team string, threshold *float64) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if team != "" {
		attrs = append(attrs, AttrTeam.String(team))
	}
	if threshold != nil {
		attrs = append(attrs, AttrThreshold.Float64(*threshold))
	}
	return attrs
}

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
// This provides graceful degradation when tracing is disabled.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors.
// Note: The status description is intentionally generic to prevent sensitive
// information (e.g., file paths, DuckDB queries) from appearing in trace
// status. The full error details are still available via span events for debugging.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
