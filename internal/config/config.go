// Package config provides configuration loading and management for the ballpark server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/ballpark/internal/telemetry"
)

const (
	// FormatCSV reads delimited text with the built-in CSV reader
	FormatCSV = "csv"

	// FormatDuckDB reads delimited text through DuckDB's read_csv_auto
	FormatDuckDB = "duckdb"
)

// Source identifiers of the six statistics datasets
const (
	SourceMLBBatters   = "mlb-batters"
	SourceMLBPitchers  = "mlb-pitchers"
	SourceMiLBBatters  = "milb-batters"
	SourceMiLBPitchers = "milb-pitchers"
	SourceFAHitters    = "fa-hitters"
	SourceFAPitchers   = "fa-pitchers"
)

// KnownSources lists every dataset identifier the registry accepts
var KnownSources = []string{
	SourceMLBBatters,
	SourceMLBPitchers,
	SourceMiLBBatters,
	SourceMiLBPitchers,
	SourceFAHitters,
	SourceFAPitchers,
}

const (
	// EnvPrefix is the prefix viper uses for environment overrides (BALLPARK_LOG_LEVEL, ...)
	EnvPrefix = "BALLPARK"

	// DefaultNameColumn is the entity identifier column
	DefaultNameColumn = "Name"

	// DefaultTeamColumn is the categorical grouping column
	DefaultTeamColumn = "Team"

	// SessionSecretEnvVar holds the cookie signing secret when no file is configured
	SessionSecretEnvVar = "BALLPARK_SESSION_SECRET"

	// DefaultSessionMaxAge is how long a session cookie stays valid
	DefaultSessionMaxAge = 24 * time.Hour

	// SessionStoreCookie keeps session state in the signed cookie itself
	SessionStoreCookie = "cookie"
	// SessionStoreFilesystem keeps session state in files; the cookie only carries the id
	SessionStoreFilesystem = "filesystem"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path    string
	dataDir string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// WithDataDir overrides the directory relative dataset paths are resolved against
func WithDataDir(dir string) Option {
	return func(cfg *loaderConfig) error {
		if dir == "" {
			return fmt.Errorf("data directory cannot be empty")
		}
		cfg.dataDir = dir
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// DataDir is the directory relative dataset paths are resolved against
	// Defaults to "./data" if not specified
	DataDir string `yaml:"dataDir,omitempty"`

	// Datasets lists the tabular sources, one per statistics category
	Datasets []DatasetConfig `yaml:"datasets"`

	// Tabs groups comparison panels the way the dashboard presents them
	Tabs []TabConfig `yaml:"tabs"`

	// Session configures the cookie store holding per-user filter state
	Session *SessionConfig `yaml:"session,omitempty"`

	// Telemetry configures OpenTelemetry tracing and metrics
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// DatasetConfig defines one external tabular source
type DatasetConfig struct {
	// ID is one of the known source identifiers
	ID string `yaml:"id"`

	// Label is the human readable name used in notices
	Label string `yaml:"label,omitempty"`

	// Path is the delimited file, absolute or relative to DataDir
	Path string `yaml:"path"`

	// Format selects the reader (csv or duckdb), csv when empty
	Format string `yaml:"format,omitempty"`

	// Delimiter is the field separator, "," when empty
	Delimiter string `yaml:"delimiter,omitempty"`
}

// TabConfig defines a dashboard tab
type TabConfig struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Subtitle string        `yaml:"subtitle,omitempty"`
	Panels   []PanelConfig `yaml:"panels"`
}

// PanelConfig parameterizes one filter-and-compare pipeline over a dataset
type PanelConfig struct {
	ID         string           `yaml:"id"`
	Title      string           `yaml:"title"`
	Dataset    string           `yaml:"dataset"`
	ChartTitle string           `yaml:"chartTitle,omitempty"`
	NameColumn string           `yaml:"nameColumn,omitempty"`
	TeamColumn string           `yaml:"teamColumn,omitempty"`
	Threshold  *ThresholdConfig `yaml:"threshold,omitempty"`
}

// ThresholdConfig defines the numeric minimum filter of a panel
type ThresholdConfig struct {
	// Column is the numeric column compared against the threshold (e.g. PA, IP)
	Column string `yaml:"column"`

	// Label is the control label shown to the user
	Label string `yaml:"label,omitempty"`

	// Default is the initial threshold value
	Default float64 `yaml:"default"`

	// Step is the control increment, 1 when unset
	Step float64 `yaml:"step,omitempty"`
}

// SessionConfig defines cookie session settings
type SessionConfig struct {
	// SecretFile is the path to a file holding the cookie signing secret
	SecretFile string `yaml:"secretFile,omitempty"`

	// MaxAge is the cookie lifetime (e.g. "24h")
	MaxAge string `yaml:"maxAge,omitempty"`

	// Secure marks the cookie as HTTPS only
	Secure bool `yaml:"secure,omitempty"`

	// Store selects where state lives: "cookie" (default) or "filesystem"
	Store string `yaml:"store,omitempty"`

	// Directory holds session files for the filesystem store, the OS temp dir when empty
	Directory string `yaml:"directory,omitempty"`
}

// GetStore returns the session store kind, SessionStoreCookie when unset
func (s *SessionConfig) GetStore() string {
	if s == nil || s.Store == "" {
		return SessionStoreCookie
	}
	return s.Store
}

// GetSecret returns the session secret using the following priority:
// 1. Read from SecretFile if specified
// 2. Read from BALLPARK_SESSION_SECRET environment variable
//
// It returns an empty string when neither is configured.
func (s *SessionConfig) GetSecret() (string, error) {
	if s != nil && s.SecretFile != "" {
		cleanPath := filepath.Clean(s.SecretFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read session secret from file %s: %w", s.SecretFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	return os.Getenv(SessionSecretEnvVar), nil
}

// GetMaxAge returns the cookie lifetime, using DefaultSessionMaxAge if unset
func (s *SessionConfig) GetMaxAge() time.Duration {
	if s == nil || s.MaxAge == "" {
		return DefaultSessionMaxAge
	}
	d, err := time.ParseDuration(s.MaxAge)
	if err != nil {
		return DefaultSessionMaxAge
	}
	return d
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if loaderCfg.dataDir != "" {
		config.DataDir = loaderCfg.dataDir
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetDataDir returns the data directory, using "./data" if not specified
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return "./data"
	}
	return c.DataDir
}

// ResolvePath returns the dataset path joined with the data directory when relative
func (c *Config) ResolvePath(ds *DatasetConfig) string {
	if filepath.IsAbs(ds.Path) {
		return ds.Path
	}
	return filepath.Join(c.GetDataDir(), ds.Path)
}

// Dataset returns the dataset configuration with the given id
func (c *Config) Dataset(id string) (*DatasetConfig, bool) {
	for i := range c.Datasets {
		if c.Datasets[i].ID == id {
			return &c.Datasets[i], true
		}
	}
	return nil, false
}

// Panel returns the panel configuration with the given id and the tab holding it
func (c *Config) Panel(id string) (*PanelConfig, *TabConfig, bool) {
	for t := range c.Tabs {
		for p := range c.Tabs[t].Panels {
			if c.Tabs[t].Panels[p].ID == id {
				return &c.Tabs[t].Panels[p], &c.Tabs[t], true
			}
		}
	}
	return nil, nil, false
}

// GetFormat returns the reader format, csv when unset
func (d *DatasetConfig) GetFormat() string {
	if d.Format == "" {
		return FormatCSV
	}
	return d.Format
}

// GetLabel returns the label, falling back to the id
func (d *DatasetConfig) GetLabel() string {
	if d.Label == "" {
		return d.ID
	}
	return d.Label
}

// GetDelimiter returns the field separator rune
func (d *DatasetConfig) GetDelimiter() rune {
	if d.Delimiter == "" {
		return ','
	}
	if d.Delimiter == `\t` {
		return '\t'
	}
	return []rune(d.Delimiter)[0]
}

// GetNameColumn returns the entity column, "Name" when unset
func (p *PanelConfig) GetNameColumn() string {
	if p.NameColumn == "" {
		return DefaultNameColumn
	}
	return p.NameColumn
}

// GetTeamColumn returns the team column, "Team" when unset
func (p *PanelConfig) GetTeamColumn() string {
	if p.TeamColumn == "" {
		return DefaultTeamColumn
	}
	return p.TeamColumn
}

// GetChartTitle returns the chart title, falling back to the panel title
func (p *PanelConfig) GetChartTitle() string {
	if p.ChartTitle == "" {
		return p.Title + " Comparison"
	}
	return p.ChartTitle
}

// GetStep returns the threshold increment, 1 when unset
func (t *ThresholdConfig) GetStep() float64 {
	if t.Step == 0 {
		return 1
	}
	return t.Step
}

// GetLabel returns the control label
func (t *ThresholdConfig) GetLabel() string {
	if t.Label == "" {
		return fmt.Sprintf("Select Minimum %s", t.Column)
	}
	return t.Label
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	return c.validate()
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.Datasets) == 0 {
		return fmt.Errorf("at least one dataset must be configured")
	}

	var errs []error

	datasetIDs := make(map[string]bool)
	for i, ds := range c.Datasets {
		if err := validateDatasetConfig(&ds, i); err != nil {
			errs = append(errs, err)
			continue
		}
		if datasetIDs[ds.ID] {
			errs = append(errs, fmt.Errorf("dataset[%d]: duplicate dataset id '%s'", i, ds.ID))
		}
		datasetIDs[ds.ID] = true
	}

	tabIDs := make(map[string]bool)
	panelIDs := make(map[string]bool)
	for i, tab := range c.Tabs {
		if tab.ID == "" {
			errs = append(errs, fmt.Errorf("tab[%d]: id is required", i))
			continue
		}
		if tabIDs[tab.ID] {
			errs = append(errs, fmt.Errorf("tab[%d]: duplicate tab id '%s'", i, tab.ID))
		}
		tabIDs[tab.ID] = true

		for j, panel := range tab.Panels {
			prefix := fmt.Sprintf("tab[%d] (%s) panel[%d]", i, tab.ID, j)
			if err := validatePanelConfig(&panel, datasetIDs, prefix); err != nil {
				errs = append(errs, err)
				continue
			}
			if panelIDs[panel.ID] {
				errs = append(errs, fmt.Errorf("%s: duplicate panel id '%s'", prefix, panel.ID))
			}
			panelIDs[panel.ID] = true
		}
	}

	if c.Session != nil {
		switch c.Session.Store {
		case "", SessionStoreCookie, SessionStoreFilesystem:
		default:
			errs = append(errs, fmt.Errorf("session.store must be %q or %q, got %q",
				SessionStoreCookie, SessionStoreFilesystem, c.Session.Store))
		}
	}
	if c.Session != nil && c.Session.MaxAge != "" {
		if _, err := time.ParseDuration(c.Session.MaxAge); err != nil {
			errs = append(errs, fmt.Errorf("session.maxAge must be a valid duration (e.g., '24h'): %w", err))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

// validateDatasetConfig validates a single dataset configuration
func validateDatasetConfig(ds *DatasetConfig, index int) error {
	if ds.ID == "" {
		return fmt.Errorf("dataset[%d]: id is required", index)
	}
	if !IsKnownSource(ds.ID) {
		return fmt.Errorf("dataset[%d]: unknown dataset id '%s' (expected one of %s)",
			index, ds.ID, strings.Join(KnownSources, ", "))
	}

	prefix := fmt.Sprintf("dataset[%d] (%s)", index, ds.ID)
	if ds.Path == "" {
		return fmt.Errorf("%s: path is required", prefix)
	}

	switch ds.GetFormat() {
	case FormatCSV, FormatDuckDB:
	default:
		return fmt.Errorf("%s: format must be %s or %s, got %s", prefix, FormatCSV, FormatDuckDB, ds.Format)
	}

	if ds.Delimiter != "" && ds.Delimiter != `\t` && len([]rune(ds.Delimiter)) != 1 {
		return fmt.Errorf("%s: delimiter must be a single character", prefix)
	}

	return nil
}

// validatePanelConfig validates a single panel configuration
func validatePanelConfig(panel *PanelConfig, datasetIDs map[string]bool, prefix string) error {
	if panel.ID == "" {
		return fmt.Errorf("%s: id is required", prefix)
	}
	if panel.Dataset == "" {
		return fmt.Errorf("%s (%s): dataset is required", prefix, panel.ID)
	}
	if !datasetIDs[panel.Dataset] {
		return fmt.Errorf("%s (%s): dataset '%s' is not configured", prefix, panel.ID, panel.Dataset)
	}

	if t := panel.Threshold; t != nil {
		if t.Column == "" {
			return fmt.Errorf("%s (%s): threshold.column is required", prefix, panel.ID)
		}
		if t.Default < 0 {
			return fmt.Errorf("%s (%s): threshold.default must not be negative", prefix, panel.ID)
		}
		if t.Step < 0 {
			return fmt.Errorf("%s (%s): threshold.step must be positive", prefix, panel.ID)
		}
	}

	return nil
}

// IsKnownSource reports whether id is one of the six dataset identifiers
func IsKnownSource(id string) bool {
	for _, known := range KnownSources {
		if known == id {
			return true
		}
	}
	return false
}
