package sources

import (
	"fmt"

	"github.com/stacklok/ballpark/internal/config"
)

// defaultSourceHandlerFactory is the default implementation of SourceHandlerFactory
type defaultSourceHandlerFactory struct{}

var _ SourceHandlerFactory = (*defaultSourceHandlerFactory)(nil)

// NewSourceHandlerFactory creates a new source handler factory
func NewSourceHandlerFactory() SourceHandlerFactory {
	return &defaultSourceHandlerFactory{}
}

// CreateHandler creates a source handler for the given format
func (*defaultSourceHandlerFactory) CreateHandler(format string) (SourceHandler, error) {
	switch format {
	case config.FormatCSV, "":
		return NewCSVSourceHandler(), nil
	case config.FormatDuckDB:
		return NewDuckDBSourceHandler(), nil
	default:
		return nil, fmt.Errorf("unsupported source format: %s", format)
	}
}
