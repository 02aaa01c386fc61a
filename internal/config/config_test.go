package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/ballpark/internal/telemetry"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	sampling := 0.5
	tests := []struct {
		name             string
		yamlContent      string
		skipFileCreation bool
		wantConfig       *Config
		wantErr          string
	}{
		{
			name: "valid_config",
			yamlContent: `dataDir: /srv/stats
datasets:
  - id: mlb-batters
    label: MLB batters
    path: mlb-batters.csv
  - id: mlb-pitchers
    path: /abs/mlb-pitching.csv
    format: duckdb
tabs:
  - id: mlb
    title: MLB
    panels:
      - id: batting
        title: MLB Batting
        dataset: mlb-batters
        threshold:
          column: PA
          default: 100
          step: 10
      - id: pitching
        title: MLB Pitching
        dataset: mlb-pitchers
session:
  maxAge: 1h`,
			wantConfig: &Config{
				DataDir: "/srv/stats",
				Datasets: []DatasetConfig{
					{ID: "mlb-batters", Label: "MLB batters", Path: "mlb-batters.csv"},
					{ID: "mlb-pitchers", Path: "/abs/mlb-pitching.csv", Format: "duckdb"},
				},
				Tabs: []TabConfig{{
					ID:    "mlb",
					Title: "MLB",
					Panels: []PanelConfig{
						{
							ID:        "batting",
							Title:     "MLB Batting",
							Dataset:   "mlb-batters",
							Threshold: &ThresholdConfig{Column: "PA", Default: 100, Step: 10},
						},
						{ID: "pitching", Title: "MLB Pitching", Dataset: "mlb-pitchers"},
					},
				}},
				Session: &SessionConfig{MaxAge: "1h"},
			},
		},
		{
			name: "config_with_telemetry",
			yamlContent: `datasets:
  - id: fa-hitters
    path: fa.csv
telemetry:
  enabled: true
  tracing:
    enabled: true
    sampling: 0.5`,
			wantConfig: &Config{
				Datasets: []DatasetConfig{{ID: "fa-hitters", Path: "fa.csv"}},
				Telemetry: &telemetry.Config{
					Enabled: true,
					Tracing: &telemetry.TracingConfig{Enabled: true, Sampling: &sampling},
				},
			},
		},
		{
			name: "unknown_dataset_id",
			yamlContent: `datasets:
  - id: nba-players
    path: nba.csv`,
			wantErr: "unknown dataset id 'nba-players'",
		},
		{
			name: "panel_references_missing_dataset",
			yamlContent: `datasets:
  - id: mlb-batters
    path: b.csv
tabs:
  - id: t
    title: T
    panels:
      - id: p
        dataset: mlb-pitchers`,
			wantErr: "dataset 'mlb-pitchers' is not configured",
		},
		{
			name:        "no_datasets",
			yamlContent: `tabs: []`,
			wantErr:     "at least one dataset must be configured",
		},
		{
			name:        "invalid_yaml",
			yamlContent: `datasets: [invalid yaml`,
			wantErr:     "failed to parse YAML config",
		},
		{
			name:             "file_not_found",
			skipFileCreation: true,
			wantErr:          "failed to evaluate symlinks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")

			if tt.skipFileCreation {
				configPath = filepath.Join(tmpDir, "non-existent.yaml")
			} else {
				err := os.WriteFile(configPath, []byte(tt.yamlContent), 0600)
				require.NoError(t, err)
			}

			config, err := LoadConfig(WithConfigPath(configPath))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, config)
		})
	}
}

func TestLoadConfig_DataDirOverride(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("dataDir: /etc/ballpark\ndatasets:\n  - id: mlb-batters\n    path: b.csv\n"), 0600))

	cfg, err := LoadConfig(WithConfigPath(configPath), WithDataDir("/override"))
	require.NoError(t, err)
	assert.Equal(t, "/override", cfg.GetDataDir())
	assert.Equal(t, "/override/b.csv", cfg.ResolvePath(&cfg.Datasets[0]))
}

func TestLoadConfig_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")

	_, err = LoadConfig(WithDataDir(""))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	tooHigh := 2.0

	base := func() *Config {
		return &Config{
			Datasets: []DatasetConfig{{ID: SourceMLBBatters, Path: "b.csv"}},
			Tabs: []TabConfig{{
				ID: "t",
				Panels: []PanelConfig{{
					ID:        "p",
					Dataset:   SourceMLBBatters,
					Threshold: &ThresholdConfig{Column: "PA", Default: 100, Step: 10},
				}},
			}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name: "duplicate_dataset",
			mutate: func(c *Config) {
				c.Datasets = append(c.Datasets, DatasetConfig{ID: SourceMLBBatters, Path: "x.csv"})
			},
			wantErr: "duplicate dataset id 'mlb-batters'",
		},
		{
			name:    "missing_path",
			mutate:  func(c *Config) { c.Datasets[0].Path = "" },
			wantErr: "path is required",
		},
		{
			name:    "bad_format",
			mutate:  func(c *Config) { c.Datasets[0].Format = "parquet" },
			wantErr: "format must be csv or duckdb",
		},
		{
			name:    "multi_char_delimiter",
			mutate:  func(c *Config) { c.Datasets[0].Delimiter = ";;" },
			wantErr: "delimiter must be a single character",
		},
		{
			name:   "tab_delimiter",
			mutate: func(c *Config) { c.Datasets[0].Delimiter = `\t` },
		},
		{
			name: "duplicate_panel",
			mutate: func(c *Config) {
				c.Tabs = append(c.Tabs, TabConfig{ID: "u", Panels: []PanelConfig{{ID: "p", Dataset: SourceMLBBatters}}})
			},
			wantErr: "duplicate panel id 'p'",
		},
		{
			name:    "missing_tab_id",
			mutate:  func(c *Config) { c.Tabs[0].ID = "" },
			wantErr: "tab[0]: id is required",
		},
		{
			name:    "threshold_without_column",
			mutate:  func(c *Config) { c.Tabs[0].Panels[0].Threshold.Column = "" },
			wantErr: "threshold.column is required",
		},
		{
			name:    "negative_default",
			mutate:  func(c *Config) { c.Tabs[0].Panels[0].Threshold.Default = -1 },
			wantErr: "threshold.default must not be negative",
		},
		{
			name:    "invalid_session_max_age",
			mutate:  func(c *Config) { c.Session = &SessionConfig{MaxAge: "forever"} },
			wantErr: "session.maxAge must be a valid duration",
		},
		{
			name:    "unknown_session_store",
			mutate:  func(c *Config) { c.Session = &SessionConfig{Store: "redis"} },
			wantErr: `session.store must be "cookie" or "filesystem", got "redis"`,
		},
		{
			name: "invalid_sampling",
			mutate: func(c *Config) {
				c.Telemetry = &telemetry.Config{Enabled: true, Tracing: &telemetry.TracingConfig{Enabled: true, Sampling: &tooHigh}}
			},
			wantErr: "telemetry: tracing: sampling must be greater than 0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Datasets, len(KnownSources))
	for _, id := range KnownSources {
		_, ok := cfg.Dataset(id)
		assert.True(t, ok, "dataset %s should be configured", id)
	}

	titles := make([]string, 0, len(cfg.Tabs))
	for _, tab := range cfg.Tabs {
		titles = append(titles, tab.Title)
	}
	assert.Equal(t, []string{"MLB Batting", "MLB Pitching", "Minor League Baseball", "Upcoming MLB Free Agents"}, titles)

	panel, tab, ok := cfg.Panel("mlb-batting")
	require.True(t, ok)
	assert.Equal(t, "mlb-batting", tab.ID)
	require.NotNil(t, panel.Threshold)
	assert.Equal(t, "PA", panel.Threshold.Column)
	assert.InDelta(t, 100.0, panel.Threshold.Default, 0)
	assert.InDelta(t, 10.0, panel.Threshold.GetStep(), 0)

	panel, _, ok = cfg.Panel("mlb-pitching")
	require.True(t, ok)
	assert.Equal(t, "IP", panel.Threshold.Column)
	assert.InDelta(t, 10.0, panel.Threshold.Default, 0)
	assert.InDelta(t, 1.0, panel.Threshold.GetStep(), 0)

	panel, _, ok = cfg.Panel("milb-batters")
	require.True(t, ok)
	assert.Nil(t, panel.Threshold)
	assert.Equal(t, "MiLB Batting Comparison", panel.GetChartTitle())

	_, _, ok = cfg.Panel("nope")
	assert.False(t, ok)
}

func TestDatasetConfigDefaults(t *testing.T) {
	t.Parallel()

	ds := DatasetConfig{ID: SourceFAHitters}
	assert.Equal(t, FormatCSV, ds.GetFormat())
	assert.Equal(t, SourceFAHitters, ds.GetLabel())
	assert.Equal(t, ',', ds.GetDelimiter())

	ds.Delimiter = `\t`
	assert.Equal(t, '\t', ds.GetDelimiter())
	ds.Delimiter = ";"
	assert.Equal(t, ';', ds.GetDelimiter())
}

func TestPanelConfigDefaults(t *testing.T) {
	t.Parallel()

	p := PanelConfig{Title: "Hitters"}
	assert.Equal(t, DefaultNameColumn, p.GetNameColumn())
	assert.Equal(t, DefaultTeamColumn, p.GetTeamColumn())
	assert.Equal(t, "Hitters Comparison", p.GetChartTitle())

	th := ThresholdConfig{Column: "IP"}
	assert.Equal(t, "Select Minimum IP", th.GetLabel())
	assert.InDelta(t, 1.0, th.GetStep(), 0)
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, filepath.Join("data", "b.csv"), cfg.ResolvePath(&DatasetConfig{Path: "b.csv"}))
	assert.Equal(t, "/abs/b.csv", cfg.ResolvePath(&DatasetConfig{Path: "/abs/b.csv"}))
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("datasets: []"), 0600))

	linkPath := filepath.Join(tmpDir, "link.yaml")
	require.NoError(t, os.Symlink(configPath, linkPath))

	tests := []struct {
		name     string
		path     string
		wantPath string
		wantErr  bool
	}{
		{name: "empty path", path: "", wantErr: true},
		{name: "path traversal at start", path: "../etc/passwd", wantErr: true},
		{name: "path traversal in middle", path: "config/../../etc/passwd", wantErr: true},
		{name: "missing file", path: filepath.Join(tmpDir, "missing.yaml"), wantErr: true},
		{name: "absolute path", path: configPath, wantPath: configPath},
		{name: "symlink resolved", path: linkPath, wantPath: configPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &loaderConfig{}
			err := WithConfigPath(tt.path)(cfg)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			want, err := filepath.EvalSymlinks(tt.wantPath)
			require.NoError(t, err)
			assert.Equal(t, want, cfg.path)
		})
	}
}

func TestSessionConfigGetSecret(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	secretFile := filepath.Join(tmpDir, "secret.txt")
	require.NoError(t, os.WriteFile(secretFile, []byte("  s3cret\n"), 0600))

	secret, err := (&SessionConfig{SecretFile: secretFile}).GetSecret()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret)

	_, err = (&SessionConfig{SecretFile: filepath.Join(tmpDir, "missing")}).GetSecret()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read session secret from file")
}

func TestSessionConfigGetSecret_Env(t *testing.T) {
	t.Setenv(SessionSecretEnvVar, "from-env")

	var cfg *SessionConfig
	secret, err := cfg.GetSecret()
	require.NoError(t, err)
	assert.Equal(t, "from-env", secret)
}

func TestSessionConfigGetMaxAge(t *testing.T) {
	t.Parallel()

	var nilCfg *SessionConfig
	assert.Equal(t, DefaultSessionMaxAge, nilCfg.GetMaxAge())
	assert.Equal(t, 90*time.Minute, (&SessionConfig{MaxAge: "90m"}).GetMaxAge())
	assert.Equal(t, DefaultSessionMaxAge, (&SessionConfig{MaxAge: "bad"}).GetMaxAge())
}

func TestSessionConfigGetStore(t *testing.T) {
	t.Parallel()

	var nilCfg *SessionConfig
	assert.Equal(t, SessionStoreCookie, nilCfg.GetStore())
	assert.Equal(t, SessionStoreCookie, (&SessionConfig{}).GetStore())
	assert.Equal(t, SessionStoreFilesystem, (&SessionConfig{Store: "filesystem"}).GetStore())
}
