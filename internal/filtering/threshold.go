package filtering

import (
	"log/slog"
	"math"

	"github.com/stacklok/ballpark/internal/dataset"
)

// Bounds is the valid range of a threshold
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp returns v limited to the bounds
func (b Bounds) Clamp(v float64) float64 {
	return math.Min(math.Max(v, b.Min), b.Max)
}

// ThresholdBounds returns [0, max] where max is the largest numeric value of column in ds.
// Pass the team-filtered dataset so the range tracks the active team.
// It reports false when the column is missing. A column without numeric values yields [0, 0].
func ThresholdBounds(ds *dataset.Dataset, column string) (Bounds, bool) {
	if !ds.HasColumn(column) {
		return Bounds{}, false
	}
	maxValue, ok := ds.Max(column)
	if !ok || maxValue < 0 {
		return Bounds{}, true
	}
	return Bounds{Min: 0, Max: maxValue}, true
}

// ApplyThresholdFilter returns the records whose numeric value at column is at least minValue.
//
// Values that are missing or do not parse as numbers are excluded. When column is missing
// the filter is skipped: ds is returned unchanged with exactly one missing_column notice.
func ApplyThresholdFilter(ds *dataset.Dataset, column string, minValue float64) (*dataset.Dataset, []Notice) {
	if !ds.HasColumn(column) {
		slog.Debug("Skipping threshold filter", "dataset", ds.Name(), "reason", "missing column", "column", column)
		return ds, []Notice{MissingColumnNotice(column)}
	}

	filtered := ds.Filter(func(i int) bool {
		v, _ := ds.Value(i, column)
		f, ok := v.Float64()
		return ok && f >= minValue
	})

	slog.Debug("Applied threshold filter",
		"dataset", ds.Name(),
		"column", column,
		"min", minValue,
		"before", ds.Len(),
		"after", filtered.Len())

	return filtered, nil
}
