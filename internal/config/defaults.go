package config

// Default returns the built-in dashboard layout: six datasets read from ./data and
// the four tabs of the 2024 season dashboard.
func Default() *Config {
	return &Config{
		Datasets: []DatasetConfig{
			{ID: SourceMLBBatters, Label: "MLB batters", Path: "mlb-batters.csv"},
			{ID: SourceMLBPitchers, Label: "MLB pitchers", Path: "mlb-pitching.csv"},
			{ID: SourceMiLBPitchers, Label: "MiLB pitchers", Path: "milb-pitchers.csv"},
			{ID: SourceMiLBBatters, Label: "MiLB batters", Path: "milb-batters.csv"},
			{ID: SourceFAHitters, Label: "free agent hitters", Path: "upcoming_fa_hit.csv"},
			{ID: SourceFAPitchers, Label: "free agent pitchers", Path: "upcoming_fa_pitch.csv"},
		},
		Tabs: []TabConfig{
			{
				ID:       "mlb-batting",
				Title:    "MLB Batting",
				Subtitle: "2024 Major League Baseball Batting Stats",
				Panels: []PanelConfig{{
					ID:         "mlb-batting",
					Title:      "MLB Batting",
					Dataset:    SourceMLBBatters,
					ChartTitle: "MLB Batting Comparison",
					Threshold: &ThresholdConfig{
						Column:  "PA",
						Label:   "Select Minimum Plate Appearances (PA)",
						Default: 100,
						Step:    10,
					},
				}},
			},
			{
				ID:       "mlb-pitching",
				Title:    "MLB Pitching",
				Subtitle: "2024 Major League Baseball Pitching Stats",
				Panels: []PanelConfig{{
					ID:         "mlb-pitching",
					Title:      "MLB Pitching",
					Dataset:    SourceMLBPitchers,
					ChartTitle: "MLB Pitching Comparison",
					Threshold: &ThresholdConfig{
						Column:  "IP",
						Label:   "Select Minimum Innings Pitched (IP)",
						Default: 10,
						Step:    1,
					},
				}},
			},
			{
				ID:       "milb",
				Title:    "Minor League Baseball",
				Subtitle: "2024 Minor League Baseball Stats",
				Panels: []PanelConfig{
					{
						ID:         "milb-pitchers",
						Title:      "MiLB Pitchers",
						Dataset:    SourceMiLBPitchers,
						ChartTitle: "MiLB Pitching Comparison",
					},
					{
						ID:         "milb-batters",
						Title:      "MiLB Batters",
						Dataset:    SourceMiLBBatters,
						ChartTitle: "MiLB Batting Comparison",
					},
				},
			},
			{
				ID:       "free-agents",
				Title:    "Upcoming MLB Free Agents",
				Subtitle: "Upcoming MLB Free Agents - 2024 Offseason",
				Panels: []PanelConfig{
					{
						ID:         "fa-hitters",
						Title:      "Hitters",
						Dataset:    SourceFAHitters,
						ChartTitle: "Free Agent Hitters Comparison",
					},
					{
						ID:         "fa-pitchers",
						Title:      "Pitchers",
						Dataset:    SourceFAPitchers,
						ChartTitle: "Free Agent Pitchers Comparison",
					},
				},
			},
		},
	}
}
