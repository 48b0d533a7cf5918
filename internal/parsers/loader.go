// Package parsers loads delimited files into schema tables.
//
// The engine itself consumes already-parsed tables; this package is the
// loader collaborator that produces them from CSV exports. Real exports
// alternate between comma and semicolon delimiters, so loading retries
// with a semicolon when a comma parse collapses everything into a single
// column.
package parsers

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"driver-settlement-engine/internal/schema"
	"driver-settlement-engine/pkg/errors"
	"driver-settlement-engine/pkg/logger"
)

// LoaderConfig holds configuration for table loading.
type LoaderConfig struct {
	// Delimiter forces a field delimiter. Zero means auto-detect: comma
	// first, semicolon when the comma parse yields a single column.
	Delimiter rune
}

// DefaultLoaderConfig returns a loader configuration with auto-detection
// enabled.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{Delimiter: 0}
}

// TableLoader reads CSV files into schema tables.
type TableLoader struct {
	config *LoaderConfig
	logger logger.Logger
}

// NewTableLoader creates a table loader with the given configuration.
func NewTableLoader(config *LoaderConfig) *TableLoader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	return &TableLoader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("loader"),
	}
}

// LoadTable reads one CSV file into a table. The first record is the
// header row; headers are cleaned by the schema package.
func (l *TableLoader) LoadTable(path string) (*schema.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	table, err := l.parse(string(data))
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	l.logger.WithFields(logger.Fields{
		"file":    path,
		"columns": len(table.Columns),
		"rows":    table.NumRows(),
	}).Info("Loaded table")

	return table, nil
}

// LoadTables reads several CSV files and concatenates them into one table,
// aligning cells by column name. Used for order exports split across files.
func (l *TableLoader) LoadTables(paths []string) (*schema.Table, error) {
	var combined *schema.Table
	for _, path := range paths {
		t, err := l.LoadTable(path)
		if err != nil {
			return nil, err
		}
		if combined == nil {
			combined = t
		} else {
			combined.Append(t)
		}
	}
	return combined, nil
}

func (l *TableLoader) parse(data string) (*schema.Table, error) {
	delimiter := l.config.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	table, err := parseWithDelimiter(data, delimiter)
	if err != nil {
		return nil, err
	}

	// A single-column result usually means the wrong separator.
	if l.config.Delimiter == 0 && len(table.Columns) < 2 {
		if retry, retryErr := parseWithDelimiter(data, ';'); retryErr == nil && len(retry.Columns) > 1 {
			l.logger.Debug("Comma parse yielded one column, using semicolon delimiter")
			return retry, nil
		}
	}

	return table, nil
}

func parseWithDelimiter(data string, delimiter rune) (*schema.Table, error) {
	reader := csv.NewReader(strings.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var header []string
	var rows [][]string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if isEmptyRecord(record) {
			continue
		}

		if header == nil {
			header = record
			continue
		}
		rows = append(rows, record)
	}

	if header == nil {
		header = []string{}
	}

	return schema.NewTable(header, rows), nil
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
