package sources

import (
	"context"

	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/dataset"
)

//go:generate mockgen -destination=mocks/mock_source_handler.go -package=mocks -source=types.go SourceHandler,SourceHandlerFactory

// SourceHandler is an interface with methods to read a dataset from an external tabular source
type SourceHandler interface {
	// Load reads the source and returns the parsed dataset
	Load(ctx context.Context, cfg *config.DatasetConfig, path string) (*FetchResult, error)

	// Validate validates the dataset source configuration
	Validate(cfg *config.DatasetConfig) error
}

// FetchResult contains the result of a load operation
type FetchResult struct {
	// Dataset is the parsed table
	Dataset *dataset.Dataset

	// Hash is the SHA256 hash of the source bytes
	Hash string

	// Rows is the number of records read
	Rows int

	// Format indicates the reader that produced the dataset
	Format string
}

// NewFetchResult creates a new FetchResult from a dataset and pre-calculated hash
func NewFetchResult(ds *dataset.Dataset, hash string, format string) *FetchResult {
	rows := 0
	if ds != nil {
		rows = ds.Len()
	}

	return &FetchResult{
		Dataset: ds,
		Hash:    hash,
		Rows:    rows,
		Format:  format,
	}
}

// SourceHandlerFactory creates source handlers based on the dataset format
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given format
	CreateHandler(format string) (SourceHandler, error)
}
