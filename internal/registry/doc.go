// Package registry provides the dataset registry: the process-wide cache of
// player statistics tables keyed by source identifier.
//
// Each configured source is read at most once for the lifetime of the process.
// Concurrent first requests for the same source share a single read, and the
// outcome of that read, success or failure, is remembered. Sources are static
// files, so nothing is ever invalidated or retried.
//
// # Usage
//
//	reg, err := registry.New(cfg,
//	    registry.WithMetrics(datasetMetrics),
//	    registry.WithTracer(tracer),
//	)
//	ds, err := reg.Load(ctx, config.SourceMLBBatters)
//	var loadErr *registry.LoadError
//	if errors.As(err, &loadErr) {
//	    // the category is unavailable; the others are unaffected
//	}
//
// Datasets returned by Load are immutable and shared between callers.
package registry
