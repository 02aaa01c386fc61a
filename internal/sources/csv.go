package sources

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/dataset"
)

// utf8BOM is stripped from the start of the header row
const utf8BOM = "\ufeff"

// csvSourceHandler reads datasets from delimited text files
type csvSourceHandler struct{}

// NewCSVSourceHandler creates a new delimited file source handler
func NewCSVSourceHandler() SourceHandler {
	return &csvSourceHandler{}
}

// Validate validates the dataset configuration
func (*csvSourceHandler) Validate(cfg *config.DatasetConfig) error {
	return validateDatasetConfig(cfg)
}

// Load reads the file at path and parses it into a dataset
func (h *csvSourceHandler) Load(_ context.Context, cfg *config.DatasetConfig, path string) (*FetchResult, error) {
	if err := h.Validate(cfg); err != nil {
		return nil, fmt.Errorf("dataset validation failed: %w", err)
	}

	data, hash, err := readSourceFile(path)
	if err != nil {
		return nil, err
	}

	header, rows, err := parseDelimited(data, cfg.GetDelimiter())
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	ds, err := dataset.New(cfg.ID, header, rows)
	if err != nil {
		return nil, err
	}

	return NewFetchResult(ds, hash, config.FormatCSV), nil
}

// parseDelimited splits raw bytes into a header row and data rows.
// Short rows are padded with empty cells; rows wider than the header are an error.
func parseDelimited(data []byte, delimiter rune) ([]string, [][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("source is empty: no header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("malformed header row: %w", err)
	}

	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([][]string, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("malformed record: %w", err)
		}
		if len(record) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, nil, fmt.Errorf("malformed record on line %d: expected %d fields, saw %d",
				line, len(header), len(record))
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

// readSourceFile reads the file and calculates its hash
func readSourceFile(path string) ([]byte, string, error) {
	//nolint:gosec // File path comes from user configuration, this is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file not found: %s", path)
		}
		return nil, "", fmt.Errorf("failed to read file %s: %w", path, err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))

	return data, hash, nil
}

// validateDatasetConfig checks the fields every handler needs
func validateDatasetConfig(cfg *config.DatasetConfig) error {
	if cfg == nil {
		return fmt.Errorf("dataset configuration cannot be nil")
	}

	if cfg.ID == "" {
		return fmt.Errorf("dataset id cannot be empty")
	}

	if cfg.Path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	return nil
}
