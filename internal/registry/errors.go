package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownSource is returned when a source identifier is not configured
var ErrUnknownSource = errors.New("unknown dataset source")

// LoadError reports that a source could not be read or parsed
type LoadError struct {
	SourceID string
	Path     string
	Err      error
}

// Error implements error
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load dataset %s from %s: %v", e.SourceID, e.Path, e.Err)
}

// Unwrap returns the underlying cause
func (e *LoadError) Unwrap() error {
	return e.Err
}
