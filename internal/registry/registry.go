package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/dataset"
	"github.com/stacklok/ballpark/internal/otel"
	"github.com/stacklok/ballpark/internal/sources"
	"github.com/stacklok/ballpark/internal/telemetry"
)

// TracerName is the name used for the dataset registry tracer
const TracerName = "github.com/stacklok/ballpark/registry"

// Registry memoizes datasets by source identifier
type Registry struct {
	mu      sync.RWMutex // Protects entries
	entries map[string]*entry
	group   singleflight.Group

	cfg     *config.Config
	order   []string
	factory sources.SourceHandlerFactory
	metrics *telemetry.DatasetMetrics
	tracer  trace.Tracer
}

// entry is the remembered outcome of one source read
type entry struct {
	ds       *dataset.Dataset
	hash     string
	format   string
	err      error
	loadedAt time.Time
}

// SourceStatus describes the cache state of one configured source
type SourceStatus struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Format   string    `json:"format"`
	Loaded   bool      `json:"loaded"`
	Rows     int       `json:"rows"`
	Columns  int       `json:"columns"`
	Hash     string    `json:"hash,omitempty"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loadedAt,omitzero"`
}

// Option is a functional option for configuring the Registry
type Option func(*Registry)

// WithHandlerFactory overrides the source handler factory
func WithHandlerFactory(factory sources.SourceHandlerFactory) Option {
	return func(r *Registry) {
		r.factory = factory
	}
}

// WithMetrics sets the dataset metrics instruments
func WithMetrics(metrics *telemetry.DatasetMetrics) Option {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// WithTracer sets the tracer used for load spans
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = tracer
	}
}

// New creates a registry over the datasets of cfg. Nothing is read until Load or Preload.
func New(cfg *config.Config, opts ...Option) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	r := &Registry{
		entries: make(map[string]*entry, len(cfg.Datasets)),
		cfg:     cfg,
		factory: sources.NewSourceHandlerFactory(),
	}
	for _, ds := range cfg.Datasets {
		r.order = append(r.order, ds.ID)
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Sources returns the configured source identifiers in configuration order
func (r *Registry) Sources() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Source returns the configuration of a source
func (r *Registry) Source(id string) (*config.DatasetConfig, bool) {
	return r.cfg.Dataset(id)
}

// Load returns the dataset for id, reading the source on first use only.
// A failed read is returned as *LoadError, now and on every later call.
func (r *Registry) Load(ctx context.Context, id string) (*dataset.Dataset, error) {
	dsCfg, ok := r.cfg.Dataset(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}

	if e, ok := r.lookup(id); ok {
		return e.ds, e.err
	}

	// The read outlives the first caller's request, so its cancellation must not be cached.
	loadCtx := context.WithoutCancel(ctx)
	v, _, _ := r.group.Do(id, func() (any, error) {
		if e, ok := r.lookup(id); ok {
			return e, nil
		}

		e := r.read(loadCtx, dsCfg)

		r.mu.Lock()
		r.entries[id] = e
		r.mu.Unlock()

		return e, nil
	})

	e := v.(*entry)
	return e.ds, e.err
}

// lookup returns the remembered entry for id
func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// read performs the actual source read and records telemetry
func (r *Registry) read(ctx context.Context, dsCfg *config.DatasetConfig) *entry {
	path := r.cfg.ResolvePath(dsCfg)
	format := dsCfg.GetFormat()

	ctx, span := otel.StartSpan(ctx, r.tracer, "registry.Load",
		trace.WithAttributes(
			otel.AttrDatasetID.String(dsCfg.ID),
			otel.AttrDatasetFormat.String(format),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := r.fetch(ctx, dsCfg, path)
	duration := time.Since(start)

	r.metrics.RecordLoad(ctx, dsCfg.ID, duration, err == nil)

	if err != nil {
		otel.RecordError(span, err)
		slog.Warn("Failed to load dataset",
			"dataset", dsCfg.ID,
			"path", path,
			"format", format,
			"error", err,
		)
		return &entry{
			format:   format,
			err:      &LoadError{SourceID: dsCfg.ID, Path: path, Err: err},
			loadedAt: time.Now(),
		}
	}

	rows := result.Dataset.Len()
	span.SetAttributes(otel.AttrRowCount.Int(rows))
	r.metrics.RecordRows(ctx, dsCfg.ID, int64(rows))

	slog.Info("Loaded dataset",
		"dataset", dsCfg.ID,
		"rows", rows,
		"columns", len(result.Dataset.ColumnNames()),
		"format", result.Format,
		"duration", duration,
	)

	return &entry{
		ds:       result.Dataset,
		hash:     result.Hash,
		format:   result.Format,
		loadedAt: time.Now(),
	}
}

// fetch creates the handler for the source format and reads the file
func (r *Registry) fetch(ctx context.Context, dsCfg *config.DatasetConfig, path string) (*sources.FetchResult, error) {
	handler, err := r.factory.CreateHandler(dsCfg.GetFormat())
	if err != nil {
		return nil, err
	}

	result, err := handler.Load(ctx, dsCfg, path)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Dataset == nil {
		return nil, fmt.Errorf("source handler returned no dataset")
	}

	return result, nil
}

// Preload reads every configured source concurrently. Load errors are remembered
// and logged, never returned; only cancellation of ctx is reported.
func (r *Registry) Preload(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, id := range r.order {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, _ = r.Load(gctx, id)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("preload interrupted: %w", err)
	}

	slog.Info("Preloaded datasets", "count", len(r.order))
	return nil
}

// Status reports the cache state of every configured source
func (r *Registry) Status() []SourceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SourceStatus, 0, len(r.order))
	for _, id := range r.order {
		dsCfg, _ := r.cfg.Dataset(id)
		st := SourceStatus{
			ID:     id,
			Label:  dsCfg.GetLabel(),
			Format: dsCfg.GetFormat(),
		}
		if e, ok := r.entries[id]; ok {
			st.LoadedAt = e.loadedAt
			if e.err != nil {
				st.Error = e.err.Error()
			} else {
				st.Loaded = true
				st.Rows = e.ds.Len()
				st.Columns = len(e.ds.ColumnNames())
				st.Hash = e.hash
			}
		}
		out = append(out, st)
	}
	return out
}
