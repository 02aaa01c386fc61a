// Package service provides the business logic for the ballpark dashboard API
package service

import (
	"context"
	"errors"

	"github.com/stacklok/ballpark/internal/chart"
	"github.com/stacklok/ballpark/internal/dataset"
	"github.com/stacklok/ballpark/internal/filtering"
	"github.com/stacklok/ballpark/internal/session"
)

var (
	// ErrPanelNotFound is returned when a panel id is not configured
	ErrPanelNotFound = errors.New("panel not found")
	// ErrDatasetNotFound is returned when a dataset id is not configured
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrInvalidQuery is returned when panel state cannot be applied, such as a bad search pattern
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotReady is returned by CheckReadiness when no dataset could be loaded
	ErrNotReady = errors.New("no datasets available")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go DashboardService

// DashboardService defines the interface for dashboard operations
type DashboardService interface {
	// CheckReadiness reports whether at least one dataset is available
	CheckReadiness(ctx context.Context) error

	// ListTabs returns the dashboard tabs and their panels in display order
	ListTabs(ctx context.Context) ([]Tab, error)

	// ListDatasets returns the load state of every configured dataset
	ListDatasets(ctx context.Context) ([]DatasetInfo, error)

	// GetDataset returns a loaded dataset by id
	GetDataset(ctx context.Context, datasetID string) (*dataset.Dataset, error)

	// GetPanel runs the filter-and-compare pipeline of a panel for the given state
	GetPanel(ctx context.Context, panelID string, state session.PanelState) (*PanelView, error)
}

// Tab is a group of panels
type Tab struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle,omitempty"`
	Panels   []PanelSummary `json:"panels"`
}

// PanelSummary describes a panel without running it
type PanelSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Dataset    string `json:"dataset"`
	ChartTitle string `json:"chartTitle"`
	Disabled   bool   `json:"disabled"`
}

// DatasetInfo is the load state and shape of a dataset
type DatasetInfo struct {
	ID             string           `json:"id"`
	Label          string           `json:"label"`
	Format         string           `json:"format"`
	Loaded         bool             `json:"loaded"`
	Rows           int              `json:"rows"`
	Columns        []dataset.Column `json:"columns,omitempty"`
	NumericColumns []string         `json:"numericColumns,omitempty"`
	Hash           string           `json:"hash,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// ThresholdControl is the numeric minimum control of a panel
type ThresholdControl struct {
	Column string  `json:"column"`
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Step   float64 `json:"step"`
	Value  float64 `json:"value"`
}

// PanelView is everything needed to render one panel.
// A disabled panel carries only its metadata and notices.
type PanelView struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Tab          string             `json:"tab"`
	Dataset      string             `json:"dataset"`
	DatasetLabel string             `json:"datasetLabel"`
	ChartTitle   string             `json:"chartTitle"`
	Disabled     bool               `json:"disabled"`
	Notices      []filtering.Notice `json:"notices"`

	TeamOptions  []string          `json:"teamOptions,omitempty"`
	SelectedTeam string            `json:"selectedTeam,omitempty"`
	Threshold    *ThresholdControl `json:"threshold,omitempty"`

	Columns  []dataset.Column `json:"columns,omitempty"`
	Rows     []dataset.Record `json:"rows,omitempty"`
	RowCount int              `json:"rowCount"`

	EntityOptions   []string `json:"entityOptions,omitempty"`
	MetricOptions   []string `json:"metricOptions,omitempty"`
	SelectedNames   []string `json:"selectedNames,omitempty"`
	SelectedMetrics []string `json:"selectedMetrics,omitempty"`

	Comparison *filtering.ComparisonTable `json:"comparison,omitempty"`
	Chart      *chart.Config              `json:"chart,omitempty"`

	// Filtered is the filtered dataset, for callers that render it themselves
	Filtered *dataset.Dataset `json:"-"`
}
