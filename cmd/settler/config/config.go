// Package config assembles engine, loader, and report configurations from
// resolved CLI flags.
package config

import (
	"fmt"
	"time"

	"driver-settlement-engine/internal/engine"
	"driver-settlement-engine/internal/parsers"
	"driver-settlement-engine/internal/reporter"
)

// CreateLoaderConfig creates the table loader configuration. An empty
// delimiter string keeps auto-detection (comma, then semicolon).
func CreateLoaderConfig(delimiter string) (*parsers.LoaderConfig, error) {
	config := parsers.DefaultLoaderConfig()

	if delimiter != "" {
		runes := []rune(delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
		}
		config.Delimiter = runes[0]
	}

	return config, nil
}

// CreateEngineConfig creates the settlement engine configuration from CLI
// values. Dates arrive as YYYY-MM-DD strings already validated by the
// command layer; empty strings mean unbounded.
func CreateEngineConfig(countryCode, startDate, endDate string) (*engine.Config, error) {
	config := engine.DefaultConfig()

	if countryCode != "" {
		config.CountryCode = countryCode
	}

	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
		config.StartDate = &t
	}

	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}
		config.EndDate = &t
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// CreateReportConfig creates a report configuration for the specified
// output format.
func CreateReportConfig(format string, includeDetail bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.IncludeOrderDetail = includeDetail

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	}

	return config
}
