// Package chart builds renderer-neutral bar chart configurations from comparison tables.
package chart

import (
	"fmt"

	"github.com/stacklok/ballpark/internal/dataset"
	"github.com/stacklok/ballpark/internal/filtering"
)

// LabelRotation is the x-axis label angle in degrees, so long player names stay legible
const LabelRotation = -45

// TypeGroupedBar is the only chart type produced
const TypeGroupedBar = "bar"

var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Axis describes one chart axis
type Axis struct {
	Title         string `json:"title"`
	LabelRotation int    `json:"labelRotation,omitempty"`
}

// Point is one bar. A nil Value is a missing cell and is drawn as a gap.
type Point struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

// Series is one metric across every entity
type Series struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Data  []Point `json:"data"`
}

// Config is a grouped bar chart: entities on the x-axis, one series per metric
type Config struct {
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	XAxis      Axis     `json:"xAxis"`
	YAxis      Axis     `json:"yAxis"`
	Series     []Series `json:"series"`
	ShowLegend bool     `json:"showLegend"`
}

// BuildBarChart converts a comparison table into a grouped bar chart.
// A nil or empty table returns filtering.ErrEmptySelection so callers show a notice instead.
func BuildBarChart(table *filtering.ComparisonTable, title string) (*Config, error) {
	if table == nil || len(table.Rows) == 0 || len(table.Metrics) == 0 {
		return nil, filtering.ErrEmptySelection
	}

	cfg := &Config{
		Type:       TypeGroupedBar,
		Title:      title,
		Categories: table.Names(),
		XAxis:      Axis{Title: "Name", LabelRotation: LabelRotation},
		YAxis:      Axis{Title: "Value"},
		ShowLegend: len(table.Metrics) > 1,
	}

	cfg.Series = make([]Series, 0, len(table.Metrics))
	for m, metric := range table.Metrics {
		points := make([]Point, 0, len(table.Rows))
		for _, row := range table.Rows {
			if len(row.Values) != len(table.Metrics) {
				return nil, fmt.Errorf("row %s has %d values for %d metrics", row.Name, len(row.Values), len(table.Metrics))
			}
			points = append(points, Point{Label: row.Name, Value: numeric(row.Values[m])})
		}
		cfg.Series = append(cfg.Series, Series{
			Name:  metric,
			Color: defaultColors[m%len(defaultColors)],
			Data:  points,
		})
	}
	if len(table.Metrics) == 1 {
		cfg.YAxis.Title = table.Metrics[0]
	}

	return cfg, nil
}

func numeric(v dataset.Value) *float64 {
	f, ok := v.Float64()
	if !ok {
		return nil
	}
	return &f
}
