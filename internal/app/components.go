package app

import (
	"context"

	"github.com/stacklok/ballpark/internal/service"
	"github.com/stacklok/ballpark/internal/session"
)

// DatasetPreloader warms the dataset cache
type DatasetPreloader interface {
	Preload(ctx context.Context) error
}

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Datasets is the memoizing dataset registry
	Datasets DatasetPreloader

	// DashboardService provides panel and dataset business logic
	DashboardService service.DashboardService

	// Sessions holds per-user panel state, nil when session routes are disabled
	Sessions *session.Store
}
