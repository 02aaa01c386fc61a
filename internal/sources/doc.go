// Package sources provides interfaces and implementations for reading
// player statistics tables from delimited files.
//
// The package defines the SourceHandler interface which abstracts the
// process of validating a dataset configuration and reading the file it
// points to into an immutable dataset.Dataset.
//
// Current implementations:
//   - csvSourceHandler: reads the file with encoding/csv and infers column
//     kinds from the text cells
//   - duckDBSourceHandler: reads the file through DuckDB's read_csv_auto in an
//     in-memory database and maps DuckDB column types onto dataset kinds
//
// Handlers are created by a SourceHandlerFactory based on the configured format.
package sources
