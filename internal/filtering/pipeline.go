package filtering

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/stacklok/ballpark/internal/dataset"
)

// ThresholdSpec configures the numeric minimum step of a pipeline
type ThresholdSpec struct {
	Column  string
	Label   string
	Default float64
	Step    float64
}

// Spec configures a pipeline for one dataset category
type Spec struct {
	NameColumn string
	TeamColumn string
	// Threshold is nil for categories without a numeric minimum
	Threshold *ThresholdSpec
}

// Criteria are the active filters
type Criteria struct {
	// Team is AllTeams or empty for no team filter
	Team string
	// Threshold is the requested minimum; nil selects the configured default
	Threshold *float64
}

// Selection is the user's choice of entities and metrics to compare
type Selection struct {
	Names   []string
	Metrics []string
	Search  string
}

// ThresholdState is the resolved threshold control
type ThresholdState struct {
	Column string  `json:"column"`
	Label  string  `json:"label"`
	Bounds Bounds  `json:"bounds"`
	Step   float64 `json:"step"`
	Value  float64 `json:"value"`
}

// Result is the output of one pipeline run
type Result struct {
	Filtered      *dataset.Dataset
	Team          string
	TeamOptions   []string
	Threshold     *ThresholdState
	EntityOptions []string
	MetricOptions []string
	// Names and Metrics are the selection members still present after filtering
	Names      []string
	Metrics    []string
	Comparison *ComparisonTable
	Notices    []Notice
}

// Pipeline runs the filter-and-compare sequence for one dataset category
type Pipeline struct {
	spec Spec
}

// New creates a pipeline. Empty column names fall back to "Name" and "Team".
func New(spec Spec) *Pipeline {
	if spec.NameColumn == "" {
		spec.NameColumn = "Name"
	}
	if spec.TeamColumn == "" {
		spec.TeamColumn = "Team"
	}
	if spec.Threshold != nil && spec.Threshold.Step <= 0 {
		t := *spec.Threshold
		t.Step = 1
		spec.Threshold = &t
	}
	return &Pipeline{spec: spec}
}

// Spec returns the pipeline configuration
func (p *Pipeline) Spec() Spec {
	return p.spec
}

// Run applies the team filter, then the threshold filter, then builds the comparison.
//
// Threshold bounds come from the team-filtered dataset and the requested value is clamped
// into them. Options are computed from the fully filtered dataset and the selection is
// narrowed to them by membership, so stale names are dropped without touching sel.
// A comparison is attempted only when both names and metrics are selected.
// An invalid search pattern is returned as an error.
func (p *Pipeline) Run(ds *dataset.Dataset, criteria Criteria, sel Selection) (*Result, error) {
	res := &Result{Team: AllTeams}

	teamFiltered, notices := ApplyTeamFilter(ds, p.spec.TeamColumn, criteria.Team)
	res.Notices = append(res.Notices, notices...)
	res.TeamOptions = TeamOptions(ds, p.spec.TeamColumn)
	if criteria.Team != "" && len(res.TeamOptions) > 0 {
		res.Team = criteria.Team
	}

	filtered := teamFiltered
	if p.spec.Threshold != nil {
		filtered = p.applyThreshold(teamFiltered, criteria, res)
	}
	res.Filtered = filtered

	entities, err := EntityOptions(filtered, p.spec.NameColumn, sel.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity options: %w", err)
	}
	res.EntityOptions = entities
	res.MetricOptions = MetricOptions(filtered)

	// Names hidden by the search stay selected as long as they survive the filters
	res.Names = intersect(sel.Names, filtered.Unique(p.spec.NameColumn))
	res.Metrics = intersect(sel.Metrics, res.MetricOptions)

	if len(sel.Names) == 0 || len(sel.Metrics) == 0 {
		slog.Debug("Skipping comparison", "dataset", ds.Name(), "reason", "empty selection")
		return res, nil
	}

	table, err := BuildComparisonTable(filtered, p.spec.NameColumn, sel.Names, sel.Metrics)
	switch {
	case errors.Is(err, ErrEmptySelection):
		res.Notices = append(res.Notices, NoDataNotice())
	case err != nil:
		return nil, err
	default:
		res.Comparison = table
	}
	return res, nil
}

func (p *Pipeline) applyThreshold(ds *dataset.Dataset, criteria Criteria, res *Result) *dataset.Dataset {
	ts := p.spec.Threshold
	bounds, ok := ThresholdBounds(ds, ts.Column)
	if !ok {
		filtered, notices := ApplyThresholdFilter(ds, ts.Column, 0)
		res.Notices = append(res.Notices, notices...)
		return filtered
	}

	requested := ts.Default
	if criteria.Threshold != nil {
		requested = *criteria.Threshold
	}
	value := bounds.Clamp(requested)
	if value != requested {
		slog.Debug("Clamped threshold",
			"dataset", ds.Name(),
			"column", ts.Column,
			"requested", requested,
			"value", value,
			"max", bounds.Max)
	}

	res.Threshold = &ThresholdState{
		Column: ts.Column,
		Label:  ts.Label,
		Bounds: bounds,
		Step:   ts.Step,
		Value:  value,
	}

	filtered, notices := ApplyThresholdFilter(ds, ts.Column, value)
	res.Notices = append(res.Notices, notices...)
	return filtered
}
