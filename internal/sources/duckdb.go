package sources

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/stacklok/ballpark/internal/config"
	"github.com/stacklok/ballpark/internal/dataset"
)

// duckDBSourceHandler reads datasets through DuckDB's CSV sniffer
type duckDBSourceHandler struct{}

// NewDuckDBSourceHandler creates a new DuckDB backed source handler
func NewDuckDBSourceHandler() SourceHandler {
	return &duckDBSourceHandler{}
}

// Validate validates the dataset configuration
func (*duckDBSourceHandler) Validate(cfg *config.DatasetConfig) error {
	return validateDatasetConfig(cfg)
}

// Load reads the file at path with read_csv_auto in an in-memory database
func (h *duckDBSourceHandler) Load(ctx context.Context, cfg *config.DatasetConfig, path string) (*FetchResult, error) {
	if err := h.Validate(cfg); err != nil {
		return nil, fmt.Errorf("dataset validation failed: %w", err)
	}

	// Hash the bytes first; this also surfaces missing files with the same message as csv.
	_, hash, err := readSourceFile(path)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	query := fmt.Sprintf(
		"SELECT * FROM read_csv_auto(%s, header=true, delim=%s)",
		quoteLiteral(absPath),
		quoteLiteral(string(cfg.GetDelimiter())),
	)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer func() { _ = rows.Close() }()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	columns := make([]dataset.Column, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = dataset.Column{Name: ct.Name(), Kind: kindFromDuckDBType(ct.DatabaseTypeName())}
	}

	records := make([]dataset.Record, 0)
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(dataset.Record, len(columns))
		for i, v := range raw {
			rec[i] = valueFromDuckDB(v, columns[i].Kind)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	widenNullableInts(columns, records)

	ds, err := dataset.FromColumns(cfg.ID, columns, records)
	if err != nil {
		return nil, err
	}

	return NewFetchResult(ds, hash, config.FormatDuckDB), nil
}

// quoteLiteral renders s as a single-quoted SQL string literal
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// kindFromDuckDBType maps a DuckDB type name onto a dataset kind
func kindFromDuckDBType(typeName string) dataset.Kind {
	t := strings.ToUpper(typeName)
	switch {
	case strings.HasPrefix(t, "DECIMAL"),
		t == "DOUBLE", t == "FLOAT", t == "REAL":
		return dataset.KindFloat
	case strings.HasSuffix(t, "INT"), strings.HasSuffix(t, "INTEGER"):
		return dataset.KindInt
	default:
		return dataset.KindString
	}
}

// valueFromDuckDB converts a scanned driver value into a dataset value of the column kind
func valueFromDuckDB(v any, kind dataset.Kind) dataset.Value {
	if v == nil {
		return dataset.Null()
	}

	switch kind {
	case dataset.KindInt:
		switch n := v.(type) {
		case int8:
			return dataset.Int(int64(n))
		case int16:
			return dataset.Int(int64(n))
		case int32:
			return dataset.Int(int64(n))
		case int64:
			return dataset.Int(n)
		case uint8:
			return dataset.Int(int64(n))
		case uint16:
			return dataset.Int(int64(n))
		case uint32:
			return dataset.Int(int64(n))
		case uint64:
			return dataset.Int(int64(n)) //nolint:gosec // stat columns never approach the int64 limit
		}
	case dataset.KindFloat:
		switch n := v.(type) {
		case float32:
			return dataset.Float(float64(n))
		case float64:
			return dataset.Float(n)
		case interface{ Float64() float64 }:
			return dataset.Float(n.Float64())
		}
	}

	switch s := v.(type) {
	case string:
		return dataset.ParseCell(s, dataset.KindString)
	case []byte:
		return dataset.ParseCell(string(s), dataset.KindString)
	case time.Time:
		if s.Hour() == 0 && s.Minute() == 0 && s.Second() == 0 && s.Nanosecond() == 0 {
			return dataset.String(s.Format(time.DateOnly))
		}
		return dataset.String(s.Format(time.RFC3339))
	default:
		return dataset.String(fmt.Sprint(s))
	}
}

// widenNullableInts turns integer columns holding missing cells into float columns,
// matching the inference the csv handler applies to text.
func widenNullableInts(columns []dataset.Column, records []dataset.Record) {
	for c := range columns {
		if columns[c].Kind != dataset.KindInt {
			continue
		}
		hasNull := false
		for _, rec := range records {
			if rec[c].IsNull() {
				hasNull = true
				break
			}
		}
		if !hasNull {
			continue
		}
		columns[c].Kind = dataset.KindFloat
		for _, rec := range records {
			if f, ok := rec[c].Float64(); ok {
				rec[c] = dataset.Float(f)
			}
		}
	}
}
