package filtering

import (
	"github.com/stacklok/ballpark/internal/dataset"
)

// EntityOptions returns the distinct names of ds in first-occurrence order, narrowed
// to those matching search. See NewNameMatcher for the search syntax.
func EntityOptions(ds *dataset.Dataset, nameColumn, search string) ([]string, error) {
	matcher, err := NewNameMatcher(search)
	if err != nil {
		return nil, err
	}

	names := ds.Unique(nameColumn)
	out := make([]string, 0, len(names))
	for _, name := range names {
		if matcher.Match(name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// MetricOptions returns the numeric columns of ds in header order
func MetricOptions(ds *dataset.Dataset) []string {
	return ds.NumericColumns()
}

// intersect returns the members of selected found in allowed, in selected order, without duplicates
func intersect(selected, allowed []string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	out := make([]string, 0, len(selected))
	seen := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		if _, ok := set[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
