// Package reporter renders settlement results for the presentation layer.
//
// Three formats are supported: console for terminal display, JSON for
// programmatic consumption, and CSV for spreadsheet export. The report
// column order is fixed: driver name, phone, total orders, base earnings,
// advance total, credit total, net settlement, bank reference.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"driver-settlement-engine/internal/engine"
	"driver-settlement-engine/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// reportColumns is the fixed export column order.
var reportColumns = []string{
	"Driver Name",
	"Phone",
	"Total Orders",
	"Base Earnings",
	"Advance Total",
	"Credit Total",
	"Net Settlement",
	"Bank Reference",
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeOrderDetail adds the per-order classification breakdown to
	// console reports and the classified orders to JSON output.
	IncludeOrderDetail bool `json:"include_order_detail"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:       FormatConsole,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator generates settlement reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the specified
// configuration.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport renders the settlement result to the provided writer.
func (rg *ReportGenerator) GenerateReport(result *engine.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("settlement result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	case FormatCSV:
		return rg.generateCSVReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(result *engine.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "DRIVER SETTLEMENT REPORT\n")
	fmt.Fprintf(writer, "Run: %s\n", result.RunID)
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	if result.Summary.DateRange != nil {
		fmt.Fprintf(writer, "Date range: %s to %s\n",
			result.Summary.DateRange.Start.Format("2006-01-02"),
			result.Summary.DateRange.End.Format("2006-01-02"))
	}
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummary(result.Summary, writer)
	fmt.Fprintf(writer, "\n")

	if len(result.Warnings) > 0 {
		fmt.Fprintf(writer, "=== WARNINGS ===\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(writer, "  [%s] %s\n", w.Code, w.Message)
		}
		fmt.Fprintf(writer, "\n")
	}

	fmt.Fprintf(writer, "=== SETTLEMENTS ===\n")
	fmt.Fprintf(writer, "%-25s %-16s %8s %14s %12s %12s %14s %s\n",
		reportColumns[0], reportColumns[1], reportColumns[2], reportColumns[3],
		reportColumns[4], reportColumns[5], reportColumns[6], reportColumns[7])
	for _, row := range result.Rows {
		fmt.Fprintf(writer, "%-25s %-16s %8d %14s %12s %12s %14s %s\n",
			truncate(row.DriverName, 25), row.Phone, row.TotalOrders,
			row.BaseEarnings.StringFixed(2), row.AdvanceTotal.StringFixed(2),
			row.CreditTotal.StringFixed(2), row.NetSettlement.StringFixed(2),
			row.BankReference)
	}

	if rg.config.IncludeOrderDetail {
		fmt.Fprintf(writer, "\n=== ORDER DETAIL ===\n")
		rg.printOrderDetail(result, writer)
	}

	return nil
}

func (rg *ReportGenerator) printSummary(summary *engine.Summary, writer io.Writer) {
	fmt.Fprintf(writer, "  Orders loaded:      %d\n", summary.TotalOrders)
	fmt.Fprintf(writer, "  Orders settled:     %d\n", summary.SettledOrders)
	if summary.FilteredOrders > 0 {
		fmt.Fprintf(writer, "  Orders filtered:    %d\n", summary.FilteredOrders)
	}
	fmt.Fprintf(writer, "  Drivers:            %d\n", summary.TotalDrivers)
	fmt.Fprintf(writer, "  Total base:         %s\n", summary.TotalBaseEarnings.StringFixed(2))
	fmt.Fprintf(writer, "  Total advances:     %s\n", summary.TotalAdvances.StringFixed(2))
	fmt.Fprintf(writer, "  Total credits:      %s\n", summary.TotalCredits.StringFixed(2))
	fmt.Fprintf(writer, "  Total net:          %s\n", summary.TotalNet.StringFixed(2))

	// Class counts in classification precedence order so output is stable.
	fmt.Fprintf(writer, "  By class:\n")
	for _, class := range models.AllSettlementClasses() {
		if count := summary.ClassCounts[class]; count > 0 {
			fmt.Fprintf(writer, "    %-14s %d\n", class, count)
		}
	}
}

func (rg *ReportGenerator) printOrderDetail(result *engine.Result, writer io.Writer) {
	for _, row := range result.Rows {
		orders := result.OrdersForDriver(row.Phone)
		if len(orders) == 0 {
			continue
		}
		fmt.Fprintf(writer, "\n%s (%s):\n", row.DriverName, row.Phone)
		for _, o := range orders {
			fmt.Fprintf(writer, "  %-12s %-14s %-20s %10s\n",
				o.OrderID, o.Class, truncate(o.RestaurantName, 20),
				o.Contribution.StringFixed(2))
		}
	}
}

func (rg *ReportGenerator) generateJSONReport(result *engine.Result, writer io.Writer) error {
	out := struct {
		RunID       string                    `json:"run_id"`
		ProcessedAt time.Time                 `json:"processed_at"`
		Summary     *engine.Summary           `json:"summary"`
		Warnings    []engine.Warning          `json:"warnings,omitempty"`
		Rows        []*models.SettlementRow   `json:"rows"`
		Orders      []*models.ClassifiedOrder `json:"orders,omitempty"`
	}{
		RunID:       result.RunID,
		ProcessedAt: result.ProcessedAt,
		Summary:     result.Summary,
		Warnings:    result.Warnings,
		Rows:        result.Rows,
	}

	if rg.config.IncludeOrderDetail {
		out.Orders = result.Orders
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func (rg *ReportGenerator) generateCSVReport(result *engine.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(reportColumns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, row := range result.Rows {
		record := []string{
			row.DriverName,
			row.Phone,
			strconv.Itoa(row.TotalOrders),
			row.BaseEarnings.StringFixed(2),
			row.AdvanceTotal.StringFixed(2),
			row.CreditTotal.StringFixed(2),
			row.NetSettlement.StringFixed(2),
			row.BankReference,
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
