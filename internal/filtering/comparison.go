package filtering

import (
	"errors"
	"log/slog"

	"github.com/stacklok/ballpark/internal/dataset"
)

// ErrEmptySelection marks a comparison with no matching records or no usable metrics.
// Callers must show a "no data" notice instead of a chart.
var ErrEmptySelection = errors.New("no data available for the selected players")

// ComparisonRow is one selected entity and its metric values, in ComparisonTable.Metrics order
type ComparisonRow struct {
	Name   string          `json:"name"`
	Values []dataset.Value `json:"values"`
}

// ComparisonTable is the entity by metric subset of a dataset used to drive a chart
type ComparisonTable struct {
	Metrics []string        `json:"metrics"`
	Rows    []ComparisonRow `json:"rows"`
}

// Names returns the entity name of each row
func (t *ComparisonTable) Names() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Name
	}
	return out
}

// BuildComparisonTable restricts ds to the records whose name is in names and the
// columns in metrics.
//
// Rows keep dataset order. Columns keep the order metrics were supplied; metrics that
// are not numeric columns of ds are dropped. When no record matches, or no metric
// remains, ErrEmptySelection is returned.
func BuildComparisonTable(ds *dataset.Dataset, nameColumn string, names, metrics []string) (*ComparisonTable, error) {
	columns := intersect(metrics, ds.NumericColumns())
	if len(columns) < len(metrics) {
		slog.Debug("Dropped comparison metrics",
			"dataset", ds.Name(),
			"requested", metrics,
			"kept", columns)
	}
	if len(columns) == 0 || !ds.HasColumn(nameColumn) {
		slog.Debug("Empty comparison", "dataset", ds.Name(), "reason", "no usable metric or name column")
		return nil, ErrEmptySelection
	}

	selected := make(map[string]struct{}, len(names))
	for _, n := range names {
		selected[n] = struct{}{}
	}

	table := &ComparisonTable{Metrics: columns, Rows: make([]ComparisonRow, 0, len(names))}
	for i := 0; i < ds.Len(); i++ {
		nv, _ := ds.Value(i, nameColumn)
		if nv.IsNull() {
			continue
		}
		name := nv.String()
		if _, ok := selected[name]; !ok {
			continue
		}
		values := make([]dataset.Value, len(columns))
		for c, col := range columns {
			values[c], _ = ds.Value(i, col)
		}
		table.Rows = append(table.Rows, ComparisonRow{Name: name, Values: values})
	}

	if len(table.Rows) == 0 {
		slog.Debug("Empty comparison", "dataset", ds.Name(), "reason", "no selected names in dataset", "names", names)
		return nil, ErrEmptySelection
	}
	return table, nil
}
