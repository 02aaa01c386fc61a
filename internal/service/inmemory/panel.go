package inmemory

import (
	"errors"
	"log/slog"

	"github.com/stacklok/ballpark/internal/chart"
	"github.com/stacklok/ballpark/internal/filtering"
	"github.com/stacklok/ballpark/internal/service"
)

// fillView copies a pipeline result into view and renders the chart
func fillView(view *service.PanelView, res *filtering.Result) {
	view.Notices = append(view.Notices, res.Notices...)
	view.TeamOptions = res.TeamOptions
	if len(res.TeamOptions) > 0 {
		view.SelectedTeam = res.Team
	}
	if res.Threshold != nil {
		view.Threshold = &service.ThresholdControl{
			Column: res.Threshold.Column,
			Label:  res.Threshold.Label,
			Min:    res.Threshold.Bounds.Min,
			Max:    res.Threshold.Bounds.Max,
			Step:   res.Threshold.Step,
			Value:  res.Threshold.Value,
		}
	}

	table := res.Filtered.Table()
	view.Filtered = res.Filtered
	view.Columns = table.Columns
	view.Rows = table.Rows
	view.RowCount = res.Filtered.Len()

	view.EntityOptions = res.EntityOptions
	view.MetricOptions = res.MetricOptions
	view.SelectedNames = res.Names
	view.SelectedMetrics = res.Metrics

	if res.Comparison == nil {
		return
	}
	view.Comparison = res.Comparison

	cfg, err := chart.BuildBarChart(res.Comparison, view.ChartTitle)
	switch {
	case errors.Is(err, filtering.ErrEmptySelection):
		view.Notices = append(view.Notices, filtering.NoDataNotice())
	case err != nil:
		slog.Error("Failed to build chart", "panel", view.ID, "error", err)
	default:
		view.Chart = cfg
	}
}
