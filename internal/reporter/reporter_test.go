package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"driver-settlement-engine/internal/engine"
	"driver-settlement-engine/internal/models"
	"driver-settlement-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		RunID:       "run-123",
		ProcessedAt: time.Date(2026, 1, 24, 10, 0, 0, 0, time.UTC),
		Rows: []*models.SettlementRow{
			{
				DriverName:    "Ahmed Benali",
				Phone:         "+212612345678",
				TotalOrders:   2,
				BaseEarnings:  decimal.NewFromInt(133),
				AdvanceTotal:  decimal.NewFromInt(25),
				CreditTotal:   decimal.Zero,
				NetSettlement: decimal.NewFromInt(108),
				BankReference: "MA0011223344",
			},
			{
				DriverName:    "Sara Idrissi",
				Phone:         "+212698765432",
				TotalOrders:   1,
				BaseEarnings:  decimal.NewFromInt(66),
				AdvanceTotal:  decimal.Zero,
				CreditTotal:   decimal.RequireFromString("10.5"),
				NetSettlement: decimal.RequireFromString("76.5"),
			},
		},
		Orders: []*models.ClassifiedOrder{
			{
				Order:        &models.Order{OrderID: "O-1", RestaurantName: "Tacos du Coin"},
				Class:        models.ClassCashInstant,
				Contribution: decimal.NewFromInt(33),
				Phone:        "+212612345678",
			},
		},
		Summary: &engine.Summary{
			TotalOrders:   3,
			SettledOrders: 3,
			TotalDrivers:  2,
			ClassCounts: map[models.SettlementClass]int{
				models.ClassCashInstant: 1,
				models.ClassReturned:    1,
				models.ClassCardInstant: 1,
			},
			TotalBaseEarnings: decimal.NewFromInt(199),
			TotalAdvances:     decimal.NewFromInt(25),
			TotalCredits:      decimal.RequireFromString("10.5"),
			TotalNet:          decimal.RequireFromString("184.5"),
		},
		Warnings: []engine.Warning{
			{Code: errors.CodeAmbiguousColumnMatch, Message: "ledger headers not recognized"},
		},
	}
}

func TestGenerateReport_Console(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"DRIVER SETTLEMENT REPORT",
		"run-123",
		"Ahmed Benali",
		"+212612345678",
		"108.00",
		"MA0011223344",
		"CASH_INSTANT",
		"=== WARNINGS ===",
		"ledger headers not recognized",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("console output missing %q", want)
		}
	}

	// Detail view is off by default.
	if strings.Contains(output, "ORDER DETAIL") {
		t.Error("console output should not include order detail by default")
	}
}

func TestGenerateReport_ConsoleWithDetail(t *testing.T) {
	rg, err := NewReportGenerator(&ReportConfig{
		Format:             FormatConsole,
		IncludeOrderDetail: true,
	})
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "ORDER DETAIL") {
		t.Error("expected order detail section")
	}
	if !strings.Contains(output, "O-1") || !strings.Contains(output, "Tacos du Coin") {
		t.Error("expected per-order lines in the detail section")
	}
}

func TestGenerateReport_JSON(t *testing.T) {
	rg, err := NewReportGenerator(&ReportConfig{Format: FormatJSON})
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	var decoded struct {
		RunID string `json:"run_id"`
		Rows  []struct {
			DriverName    string `json:"driver_name"`
			Phone         string `json:"phone"`
			NetSettlement string `json:"net_settlement"`
		} `json:"rows"`
		Orders []json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output does not decode: %v", err)
	}

	if decoded.RunID != "run-123" {
		t.Errorf("run_id = %q, want run-123", decoded.RunID)
	}
	if len(decoded.Rows) != 2 {
		t.Fatalf("expected 2 rows in JSON, got %d", len(decoded.Rows))
	}
	if decoded.Rows[0].NetSettlement != "108" {
		t.Errorf("net_settlement = %q, want 108", decoded.Rows[0].NetSettlement)
	}
	// Orders omitted unless detail is requested.
	if len(decoded.Orders) != 0 {
		t.Errorf("expected no orders in JSON without detail, got %d", len(decoded.Orders))
	}
}

func TestGenerateReport_JSONWithDetail(t *testing.T) {
	rg, err := NewReportGenerator(&ReportConfig{Format: FormatJSON, IncludeOrderDetail: true})
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	var decoded struct {
		Orders []json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output does not decode: %v", err)
	}
	if len(decoded.Orders) != 1 {
		t.Errorf("expected 1 classified order in JSON detail, got %d", len(decoded.Orders))
	}
}

func TestGenerateReport_CSV(t *testing.T) {
	rg, err := NewReportGenerator(&ReportConfig{
		Format:       FormatCSV,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	})
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != "Driver Name" || records[0][7] != "Bank Reference" {
		t.Errorf("unexpected CSV header: %v", records[0])
	}

	ahmed := records[1]
	if ahmed[0] != "Ahmed Benali" || ahmed[1] != "+212612345678" {
		t.Errorf("unexpected first row: %v", ahmed)
	}
	if ahmed[6] != "108.00" {
		t.Errorf("net settlement cell = %q, want fixed-point 108.00", ahmed[6])
	}

	sara := records[2]
	if sara[5] != "10.50" || sara[6] != "76.50" {
		t.Errorf("unexpected second row amounts: %v", sara)
	}
}

func TestGenerateReport_CSVSemicolonNoHeader(t *testing.T) {
	rg, err := NewReportGenerator(&ReportConfig{
		Format:       FormatCSV,
		CSVDelimiter: ';',
		CSVHeaders:   false,
	})
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(sampleResult(), &buf); err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 rows without header, got %d", len(records))
	}
}

func TestGenerateReport_NilResult(t *testing.T) {
	rg, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := rg.GenerateReport(nil, &buf); err == nil {
		t.Error("expected nil result to fail")
	}
}

func TestReportConfig_Validate(t *testing.T) {
	if err := DefaultReportConfig().Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}

	bad := &ReportConfig{Format: OutputFormat("xml")}
	if err := bad.Validate(); err == nil {
		t.Error("expected unsupported format to fail validation")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 25); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a very long restaurant name indeed", 10); got != "a very ..." {
		t.Errorf("truncate() = %q, want %q", got, "a very ...")
	}
	if len(truncate("abcdef", 3)) != 3 {
		t.Error("truncate must respect max below ellipsis width")
	}
}
