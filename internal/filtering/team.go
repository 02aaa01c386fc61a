package filtering

import (
	"log/slog"

	"github.com/stacklok/ballpark/internal/dataset"
)

// AllTeams is the team selection that disables team filtering
const AllTeams = "All Teams"

// ApplyTeamFilter returns the records whose team column equals team, in dataset order.
//
// AllTeams (or an empty selection) returns ds unchanged. A team that does not occur
// yields an empty dataset. When the team column is missing, team filtering is
// unavailable: ds is returned unchanged with a no_team_column notice.
func ApplyTeamFilter(ds *dataset.Dataset, teamColumn, team string) (*dataset.Dataset, []Notice) {
	if !ds.HasColumn(teamColumn) {
		slog.Debug("Skipping team filter", "dataset", ds.Name(), "reason", "no team column", "column", teamColumn)
		return ds, []Notice{NoTeamColumnNotice(teamColumn)}
	}

	if team == "" || team == AllTeams {
		slog.Debug("Skipping team filter", "dataset", ds.Name(), "reason", "all teams selected")
		return ds, nil
	}

	filtered := ds.Filter(func(i int) bool {
		v, _ := ds.Value(i, teamColumn)
		return !v.IsNull() && v.String() == team
	})

	slog.Debug("Applied team filter",
		"dataset", ds.Name(),
		"team", team,
		"before", ds.Len(),
		"after", filtered.Len())

	return filtered, nil
}

// TeamOptions returns AllTeams followed by the distinct teams of ds in first-occurrence
// order. It returns nil when the team column is missing.
func TeamOptions(ds *dataset.Dataset, teamColumn string) []string {
	if !ds.HasColumn(teamColumn) {
		return nil
	}
	return append([]string{AllTeams}, ds.Unique(teamColumn)...)
}
