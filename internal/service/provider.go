package service

import (
	"context"

	"github.com/stacklok/ballpark/internal/dataset"
	"github.com/stacklok/ballpark/internal/registry"
)

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=provider.go DatasetProvider

// DatasetProvider abstracts where datasets come from.
// *registry.Registry is the production implementation.
type DatasetProvider interface {
	// Load returns the dataset for a source id. Failed loads return *registry.LoadError.
	Load(ctx context.Context, id string) (*dataset.Dataset, error)

	// Status reports the cache state of every configured source
	Status() []registry.SourceStatus
}

var _ DatasetProvider = (*registry.Registry)(nil)
