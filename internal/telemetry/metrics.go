package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DatasetMetricsMeterName is the name used for the dataset registry meter
	DatasetMetricsMeterName = "github.com/stacklok/ballpark/registry"

	// PipelineMetricsMeterName is the name used for the filter pipeline meter
	PipelineMetricsMeterName = "github.com/stacklok/ballpark/pipeline"
)

// DatasetMetrics holds the OpenTelemetry instruments for dataset loading
type DatasetMetrics struct {
	loadDuration metric.Float64Histogram
	rowsTotal    metric.Int64Gauge
}

// NewDatasetMetrics creates a new DatasetMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewDatasetMetrics(provider metric.MeterProvider) (*DatasetMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(DatasetMetricsMeterName)

	loadDuration, err := meter.Float64Histogram(
		"ballpark_dataset_load_duration_seconds",
		metric.WithDescription("Duration of dataset loads in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	rowsTotal, err := meter.Int64Gauge(
		"ballpark_dataset_rows",
		metric.WithDescription("Number of records in each loaded dataset"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	return &DatasetMetrics{
		loadDuration: loadDuration,
		rowsTotal:    rowsTotal,
	}, nil
}

// RecordLoad records the duration and outcome of a dataset load
func (m *DatasetMetrics) RecordLoad(ctx context.Context, datasetID string, duration time.Duration, success bool) {
	if m == nil || m.loadDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("dataset", datasetID),
		attribute.Bool("success", success),
	}

	m.loadDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRows records the number of records in a loaded dataset
func (m *DatasetMetrics) RecordRows(ctx context.Context, datasetID string, rows int64) {
	if m == nil || m.rowsTotal == nil {
		return
	}

	m.rowsTotal.Record(ctx, rows, metric.WithAttributes(attribute.String("dataset", datasetID)))
}

// PipelineMetrics holds the OpenTelemetry instruments for filter-and-compare runs
type PipelineMetrics struct {
	runDuration  metric.Float64Histogram
	noticesTotal metric.Int64Counter
}

// NewPipelineMetrics creates a new PipelineMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewPipelineMetrics(provider metric.MeterProvider) (*PipelineMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PipelineMetricsMeterName)

	runDuration, err := meter.Float64Histogram(
		"ballpark_pipeline_duration_seconds",
		metric.WithDescription("Duration of filter-and-compare pipeline runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, err
	}

	noticesTotal, err := meter.Int64Counter(
		"ballpark_pipeline_notices_total",
		metric.WithDescription("Total number of notices raised by pipeline runs"),
		metric.WithUnit("{notice}"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		runDuration:  runDuration,
		noticesTotal: noticesTotal,
	}, nil
}

// RecordRun records the duration of one pipeline run for a panel
func (m *PipelineMetrics) RecordRun(ctx context.Context, panelID string, duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}

	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("panel", panelID)))
}

// RecordNotice counts one notice raised for a panel
func (m *PipelineMetrics) RecordNotice(ctx context.Context, panelID, code string) {
	if m == nil || m.noticesTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("panel", panelID),
		attribute.String("code", code),
	}

	m.noticesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
