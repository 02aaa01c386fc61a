// Package telemetry wires OpenTelemetry into the ballpark server: OTLP/HTTP export of
// spans and metrics, an optional Prometheus scrape endpoint, HTTP instrumentation, and the
// dataset and pipeline instruments.
package telemetry

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultServiceName identifies the server when telemetry.serviceName is empty
	DefaultServiceName = "ballpark-api"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling samples 5% of traces
	DefaultSampling = 0.05

	unknownVersion = "unknown"
)

// Config is the telemetry section of the server configuration
type Config struct {
	// Enabled switches all telemetry on; nothing below applies when false
	Enabled bool `yaml:"enabled"`

	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the collector "host:port"; the exporters add /v1/traces and /v1/metrics
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends OTLP over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the trace ratio in (0, 1], DefaultSampling when unset
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Prometheus additionally exposes metrics for scraping on /metrics
	Prometheus bool `yaml:"prometheus,omitempty"`
}

// settings is a Config with every default resolved
type settings struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool
	tracing        bool
	sampling       float64
	metrics        bool
	prometheus     bool
}

func (c *Config) resolve() settings {
	s := settings{
		serviceName:    DefaultServiceName,
		serviceVersion: unknownVersion,
		endpoint:       DefaultEndpoint,
		sampling:       DefaultSampling,
	}
	if c == nil || !c.Enabled {
		return s
	}

	if c.ServiceName != "" {
		s.serviceName = c.ServiceName
	}
	if c.ServiceVersion != "" {
		s.serviceVersion = c.ServiceVersion
	}
	if c.Endpoint != "" {
		s.endpoint = c.Endpoint
	}
	s.insecure = c.Insecure

	if c.Tracing != nil && c.Tracing.Enabled {
		s.tracing = true
		if c.Tracing.Sampling != nil {
			s.sampling = *c.Tracing.Sampling
		}
	}
	if c.Metrics != nil && c.Metrics.Enabled {
		s.metrics = true
		s.prometheus = c.Metrics.Prometheus
	}
	return s
}

// PrometheusEnabled reports whether the scrape endpoint should be served
func (c *Config) PrometheusEnabled() bool {
	return c.resolve().prometheus
}

// Validate checks an enabled configuration. A nil or disabled config is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if strings.Contains(c.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("endpoint must be host:port without a scheme, got %q", c.Endpoint))
	}
	if c.Tracing != nil && c.Tracing.Enabled && c.Tracing.Sampling != nil {
		if v := *c.Tracing.Sampling; v <= 0 || v > 1.0 {
			errs = append(errs, fmt.Errorf("tracing: sampling must be greater than 0.0 and at most 1.0, got %f", v))
		}
	}
	return errors.Join(errs...)
}
