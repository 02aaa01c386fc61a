// Package inmemory provides the DashboardService implementation over datasets cached in memory
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/dataset"
	"github.com/stacklok/ballpark/internal/filtering"
	"github.com/stacklok/ballpark/internal/otel"
	"github.com/stacklok/ballpark/internal/registry"
	"github.com/stacklok/ballpark/internal/service"
	"github.com/stacklok/ballpark/internal/session"
	"github.com/stacklok/ballpark/internal/telemetry"
)

// ServiceTracerName is the name used for the dashboard service tracer
const ServiceTracerName = "github.com/stacklok/ballpark/service"

// dashSvc implements the DashboardService interface
type dashSvc struct {
	cfg       *config.Config
	provider  service.DatasetProvider
	pipelines map[string]*filtering.Pipeline
	metrics   *telemetry.PipelineMetrics
	tracer    trace.Tracer
}

var _ service.DashboardService = (*dashSvc)(nil)

// Option is a functional option for configuring the dashSvc
type Option func(*dashSvc)

// WithMetrics records pipeline runs and notices
func WithMetrics(metrics *telemetry.PipelineMetrics) Option {
	return func(s *dashSvc) {
		s.metrics = metrics
	}
}

// WithTracer sets the tracer for service spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *dashSvc) {
		s.tracer = tracer
	}
}

// New creates a dashboard service. One pipeline is built per configured panel.
func New(cfg *config.Config, provider service.DatasetProvider, opts ...Option) (service.DashboardService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("dataset provider is required")
	}

	s := &dashSvc{
		cfg:       cfg,
		provider:  provider,
		pipelines: make(map[string]*filtering.Pipeline),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, tab := range cfg.Tabs {
		for i := range tab.Panels {
			p := &tab.Panels[i]
			s.pipelines[p.ID] = filtering.New(pipelineSpec(p))
		}
	}

	return s, nil
}

func pipelineSpec(p *config.PanelConfig) filtering.Spec {
	spec := filtering.Spec{
		NameColumn: p.GetNameColumn(),
		TeamColumn: p.GetTeamColumn(),
	}
	if p.Threshold != nil {
		spec.Threshold = &filtering.ThresholdSpec{
			Column:  p.Threshold.Column,
			Label:   p.Threshold.GetLabel(),
			Default: p.Threshold.Default,
			Step:    p.Threshold.GetStep(),
		}
	}
	return spec
}

// CheckReadiness implements DashboardService.CheckReadiness
func (s *dashSvc) CheckReadiness(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var errs []error
	for _, ds := range s.cfg.Datasets {
		_, err := s.provider.Load(ctx, ds.ID)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("%w: %w", service.ErrNotReady, errors.Join(errs...))
}

// ListTabs implements DashboardService.ListTabs
func (s *dashSvc) ListTabs(ctx context.Context) ([]service.Tab, error) {
	tabs := make([]service.Tab, 0, len(s.cfg.Tabs))
	for _, tc := range s.cfg.Tabs {
		tab := service.Tab{
			ID:       tc.ID,
			Title:    tc.Title,
			Subtitle: tc.Subtitle,
			Panels:   make([]service.PanelSummary, 0, len(tc.Panels)),
		}
		for _, pc := range tc.Panels {
			ds, err := s.provider.Load(ctx, pc.Dataset)
			tab.Panels = append(tab.Panels, service.PanelSummary{
				ID:         pc.ID,
				Title:      pc.Title,
				Dataset:    pc.Dataset,
				ChartTitle: pc.GetChartTitle(),
				Disabled:   err != nil || ds.IsEmpty(),
			})
		}
		tabs = append(tabs, tab)
	}
	return tabs, nil
}

// ListDatasets implements DashboardService.ListDatasets
func (s *dashSvc) ListDatasets(ctx context.Context) ([]service.DatasetInfo, error) {
	status := s.provider.Status()
	out := make([]service.DatasetInfo, 0, len(status))
	for _, st := range status {
		info := service.DatasetInfo{
			ID:     st.ID,
			Label:  st.Label,
			Format: st.Format,
			Loaded: st.Loaded,
			Rows:   st.Rows,
			Hash:   st.Hash,
			Error:  st.Error,
		}
		if st.Loaded {
			if ds, err := s.provider.Load(ctx, st.ID); err == nil {
				info.Columns = ds.Columns()
				info.NumericColumns = ds.NumericColumns()
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// GetDataset implements DashboardService.GetDataset
func (s *dashSvc) GetDataset(ctx context.Context, datasetID string) (*dataset.Dataset, error) {
	ds, err := s.provider.Load(ctx, datasetID)
	if errors.Is(err, registry.ErrUnknownSource) {
		return nil, fmt.Errorf("%w: %s", service.ErrDatasetNotFound, datasetID)
	}
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// GetPanel implements DashboardService.GetPanel
func (s *dashSvc) GetPanel(ctx context.Context, panelID string, state session.PanelState) (*service.PanelView, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.GetPanel",
		trace.WithAttributes(otel.AttrPanelID.String(panelID)),
		trace.WithAttributes(otel.FilterAttributes(state.Team, state.Threshold)...),
	)
	defer span.End()

	pc, tc, ok := s.cfg.Panel(panelID)
	if !ok {
		err := fmt.Errorf("%w: %s", service.ErrPanelNotFound, panelID)
		otel.RecordError(span, err)
		return nil, err
	}
	dsCfg, _ := s.cfg.Dataset(pc.Dataset)
	span.SetAttributes(otel.AttrDatasetID.String(pc.Dataset))

	view := &service.PanelView{
		ID:           pc.ID,
		Title:        pc.Title,
		Tab:          tc.ID,
		Dataset:      pc.Dataset,
		DatasetLabel: dsCfg.GetLabel(),
		ChartTitle:   pc.GetChartTitle(),
		Notices:      []filtering.Notice{},
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordRun(ctx, panelID, time.Since(start))
		for _, n := range view.Notices {
			s.metrics.RecordNotice(ctx, panelID, string(n.Code))
		}
		span.SetAttributes(otel.AttrNoticeCount.Int(len(view.Notices)))
	}()

	ds, err := s.provider.Load(ctx, pc.Dataset)
	if err != nil {
		var loadErr *registry.LoadError
		if !errors.As(err, &loadErr) {
			otel.RecordError(span, err)
			return nil, err
		}
		slog.Warn("Panel disabled, dataset failed to load", "panel", panelID, "dataset", pc.Dataset, "error", err)
		view.Disabled = true
		view.Notices = append(view.Notices, filtering.LoadErrorNotice(view.DatasetLabel))
		return view, nil
	}
	if ds.IsEmpty() {
		slog.Debug("Panel disabled, dataset is empty", "panel", panelID, "dataset", pc.Dataset)
		view.Disabled = true
		view.Notices = append(view.Notices, filtering.EmptyDatasetNotice(view.DatasetLabel))
		return view, nil
	}

	res, err := s.pipelines[panelID].Run(ds, state.Criteria(), state.Selection())
	if err != nil {
		err = fmt.Errorf("%w: %w", service.ErrInvalidQuery, err)
		otel.RecordError(span, err)
		return nil, err
	}

	fillView(view, res)
	span.SetAttributes(otel.AttrRowCount.Int(view.RowCount))
	return view, nil
}
