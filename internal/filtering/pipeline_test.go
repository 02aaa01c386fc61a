package filtering

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/ballpark/internal/dataset"
)

func floatPtr(f float64) *float64 {
	return &f
}

func battingPipeline() *Pipeline {
	return New(Spec{
		Threshold: &ThresholdSpec{
			Column:  "PA",
			Label:   "Select Minimum Plate Appearances (PA)",
			Default: 100,
			Step:    10,
		},
	})
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	p := New(Spec{Threshold: &ThresholdSpec{Column: "IP"}})
	assert.Equal(t, "Name", p.Spec().NameColumn)
	assert.Equal(t, "Team", p.Spec().TeamColumn)
	assert.Equal(t, 1.0, p.Spec().Threshold.Step)
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		criteria      Criteria
		selection     Selection
		wantFiltered  []string
		wantTeam      string
		wantThreshold *ThresholdState
		wantNames     []string
		wantRows      []string
		wantCodes     []Code
	}{
		{
			name:         "defaults apply threshold default",
			criteria:     Criteria{},
			wantFiltered: []string{"B"},
			wantTeam:     AllTeams,
			wantThreshold: &ThresholdState{
				Column: "PA", Label: "Select Minimum Plate Appearances (PA)",
				Bounds: Bounds{Min: 0, Max: 150}, Step: 10, Value: 100,
			},
			wantNames: []string{},
		},
		{
			name:         "team filter bounds threshold and clamps default",
			criteria:     Criteria{Team: "X"},
			wantFiltered: []string{"A"},
			wantTeam:     "X",
			wantThreshold: &ThresholdState{
				Column: "PA", Label: "Select Minimum Plate Appearances (PA)",
				Bounds: Bounds{Min: 0, Max: 50}, Step: 10, Value: 50,
			},
			wantNames: []string{},
		},
		{
			name:         "explicit threshold",
			criteria:     Criteria{Threshold: floatPtr(0)},
			selection:    Selection{Names: []string{"A", "B"}, Metrics: []string{"PA"}},
			wantFiltered: []string{"A", "B"},
			wantTeam:     AllTeams,
			wantThreshold: &ThresholdState{
				Column: "PA", Label: "Select Minimum Plate Appearances (PA)",
				Bounds: Bounds{Min: 0, Max: 150}, Step: 10, Value: 0,
			},
			wantNames: []string{"A", "B"},
			wantRows:  []string{"A", "B"},
		},
		{
			name:         "stale selection dropped by membership",
			criteria:     Criteria{Threshold: floatPtr(100)},
			selection:    Selection{Names: []string{"A", "B"}, Metrics: []string{"PA"}},
			wantFiltered: []string{"B"},
			wantTeam:     AllTeams,
			wantThreshold: &ThresholdState{
				Column: "PA", Label: "Select Minimum Plate Appearances (PA)",
				Bounds: Bounds{Min: 0, Max: 150}, Step: 10, Value: 100,
			},
			wantNames: []string{"B"},
			wantRows:  []string{"B"},
		},
		{
			name:         "unknown name yields no data notice",
			criteria:     Criteria{Threshold: floatPtr(0)},
			selection:    Selection{Names: []string{"Z"}, Metrics: []string{"PA"}},
			wantFiltered: []string{"A", "B"},
			wantTeam:     AllTeams,
			wantThreshold: &ThresholdState{
				Column: "PA", Label: "Select Minimum Plate Appearances (PA)",
				Bounds: Bounds{Min: 0, Max: 150}, Step: 10, Value: 0,
			},
			wantNames: []string{},
			wantCodes: []Code{CodeNoData},
		},
		{
			name:         "unknown team empties the view",
			criteria:     Criteria{Team: "Z"},
			selection:    Selection{Names: []string{"A"}, Metrics: []string{"PA"}},
			wantFiltered: []string{},
			wantTeam:     "Z",
			wantThreshold: &ThresholdState{
				Column: "PA", Label: "Select Minimum Plate Appearances (PA)",
				Bounds: Bounds{}, Step: 10, Value: 0,
			},
			wantNames: []string{},
			wantCodes: []Code{CodeNoData},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := battingPipeline().Run(newDataset(t), tt.criteria, tt.selection)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFiltered, names(t, res.Filtered))
			assert.Equal(t, tt.wantTeam, res.Team)
			assert.Equal(t, []string{AllTeams, "X", "Y"}, res.TeamOptions)
			assert.Equal(t, tt.wantThreshold, res.Threshold)
			assert.Equal(t, tt.wantNames, res.Names)

			codes := make([]Code, 0, len(res.Notices))
			for _, n := range res.Notices {
				codes = append(codes, n.Code)
			}
			assert.ElementsMatch(t, tt.wantCodes, codes)

			if tt.wantRows == nil {
				assert.Nil(t, res.Comparison)
				return
			}
			require.NotNil(t, res.Comparison)
			assert.Equal(t, tt.wantRows, res.Comparison.Names())
		})
	}
}

func TestPipelineRun_MissingThresholdColumn(t *testing.T) {
	t.Parallel()

	p := New(Spec{Threshold: &ThresholdSpec{Column: "IP", Default: 10}})
	res, err := p.Run(newDataset(t), Criteria{}, Selection{Names: []string{"A"}, Metrics: []string{"PA"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, names(t, res.Filtered))
	assert.Nil(t, res.Threshold)
	require.Len(t, res.Notices, 1)
	assert.Equal(t, CodeMissingColumn, res.Notices[0].Code)
	require.NotNil(t, res.Comparison)
	assert.Equal(t, []string{"A"}, res.Comparison.Names())
}

func TestPipelineRun_NoThresholdSpec(t *testing.T) {
	t.Parallel()

	res, err := New(Spec{}).Run(newDataset(t), Criteria{Team: "Y"}, Selection{})
	require.NoError(t, err)

	assert.Nil(t, res.Threshold)
	assert.Empty(t, res.Notices)
	assert.Equal(t, []string{"B"}, res.EntityOptions)
	assert.Equal(t, []string{"PA"}, res.MetricOptions)
}

func TestPipelineRun_NoTeamColumn(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New("prospects",
		[]string{"Name", "IP", "ERA"},
		[][]string{{"A", "10", "3.10"}, {"B", "40", "4.50"}})
	require.NoError(t, err)

	p := New(Spec{Threshold: &ThresholdSpec{Column: "IP", Default: 10}})
	res, err := p.Run(ds, Criteria{Team: "X"}, Selection{})
	require.NoError(t, err)

	assert.Equal(t, AllTeams, res.Team)
	assert.Nil(t, res.TeamOptions)
	assert.Equal(t, []string{"A", "B"}, names(t, res.Filtered))
	require.Len(t, res.Notices, 1)
	assert.Equal(t, CodeNoTeamColumn, res.Notices[0].Code)
}

func TestPipelineRun_SearchNarrowsOptionsOnly(t *testing.T) {
	t.Parallel()

	res, err := New(Spec{}).Run(newRoster(t), Criteria{},
		Selection{Names: []string{"Aaron Judge", "Bo Bichette"}, Metrics: []string{"HR"}, Search: "bo*"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bo Bichette"}, res.EntityOptions)
	assert.Equal(t, []string{"Aaron Judge", "Bo Bichette"}, res.Names)
	require.NotNil(t, res.Comparison)
	assert.Equal(t, []string{"Aaron Judge", "Bo Bichette", "Aaron Judge"}, res.Comparison.Names())
}

func TestPipelineRun_InvalidSearch(t *testing.T) {
	t.Parallel()

	_, err := New(Spec{}).Run(newRoster(t), Criteria{}, Selection{Search: "[a"})
	assert.Error(t, err)
}

func TestPipelineRun_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	ds := newDataset(t)
	before := ds.Table()
	sel := Selection{Names: []string{"A", "Z"}, Metrics: []string{"PA", "ERA"}}

	_, err := battingPipeline().Run(ds, Criteria{Team: "X"}, sel)
	require.NoError(t, err)

	assert.Equal(t, before, ds.Table())
	assert.Equal(t, []string{"A", "Z"}, sel.Names)
	assert.Equal(t, []string{"PA", "ERA"}, sel.Metrics)
}

func TestPipelineRun_Deterministic(t *testing.T) {
	t.Parallel()

	ds := newRoster(t)
	p := New(Spec{Threshold: &ThresholdSpec{Column: "HR", Default: 10}})
	sel := Selection{Names: []string{"Aaron Judge", "Rowdy Tellez"}, Metrics: []string{"HR"}}

	first, err := p.Run(ds, Criteria{Team: "NYY"}, sel)
	require.NoError(t, err)
	second, err := p.Run(ds, Criteria{Team: "NYY"}, sel)
	require.NoError(t, err)

	assert.Equal(t, first.Filtered.Table(), second.Filtered.Table())
	assert.Equal(t, first.Comparison, second.Comparison)
	assert.Equal(t, first.Threshold, second.Threshold)
}

func TestPipelineRun_InfiniteValuesKeepBoundsFinite(t *testing.T) {
	t.Parallel()

	ds, err := dataset.New("pitchers",
		[]string{"Name", "Team", "IP", "ERA"},
		[][]string{{"Ace", "X", "180", "2.90"}, {"Opener", "X", "0", "inf"}})
	require.NoError(t, err)

	res, err := New(Spec{Threshold: &ThresholdSpec{Column: "ERA"}}).Run(ds, Criteria{}, Selection{})
	require.NoError(t, err)

	require.NotNil(t, res.Threshold)
	assert.Equal(t, Bounds{Min: 0, Max: 2.9}, res.Threshold.Bounds)
	assert.Equal(t, []string{"Ace"}, names(t, res.Filtered))

	_, err = json.Marshal(res.Threshold)
	assert.NoError(t, err)
}
