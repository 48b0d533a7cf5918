// Package engine orchestrates a settlement run: it resolves the schema of
// the input tables, classifies and prices every order, aggregates per
// driver, merges the external ledgers, and computes the final balances.
//
// A run is single-threaded, batch-oriented, and deterministic: the same
// input tables always produce byte-identical monetary totals. All reference
// state (deferred restaurants, synonyms, formula overrides) is copied into
// the run, so concurrent runs in one process do not interfere.
package engine

import (
	"context"
	"fmt"
	"time"

	"driver-settlement-engine/internal/classify"
	"driver-settlement-engine/internal/formula"
	"driver-settlement-engine/internal/models"
	"driver-settlement-engine/internal/normalize"
	"driver-settlement-engine/internal/schema"
	"driver-settlement-engine/pkg/errors"
	"driver-settlement-engine/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds configuration options for the settlement service.
type Config struct {
	// CountryCode is the calling code substituted for local leading zeros
	// during phone normalization.
	CountryCode string

	// StartDate and EndDate bound the run to order timestamps inside the
	// range, inclusive. Nil means unbounded.
	StartDate *time.Time
	EndDate   *time.Time

	// FormulaOverrides replaces individual payout formulas for this run.
	FormulaOverrides formula.Table

	// ExtraSynonyms extends the schema mapper's synonym table.
	ExtraSynonyms map[string][]string
}

// DefaultConfig returns a default configuration for the settlement service.
func DefaultConfig() *Config {
	return &Config{
		CountryCode: normalize.DefaultCountryCode,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.CountryCode == "" {
		return fmt.Errorf("country code is required")
	}

	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}

	return nil
}

// Request carries the parsed input tables for one settlement run. Only the
// orders table is required; absent enrichment tables degrade to zero/empty
// contributions.
type Request struct {
	Orders              *schema.Table
	Advances            *schema.Table
	Credits             *schema.Table
	BankReferences      *schema.Table
	DeferredRestaurants *schema.Table
}

// Validate validates the settlement request.
func (r *Request) Validate() error {
	if r.Orders == nil {
		return fmt.Errorf("orders table is required")
	}
	return nil
}

// Warning is a recovered anomaly surfaced on the run result for audit:
// positional fallbacks, ambiguous column matches, skipped enrichment
// tables.
type Warning struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// DateRange is the date filter applied to the run, for report metadata.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Summary provides a high-level overview of a settlement run.
type Summary struct {
	TotalOrders    int `json:"total_orders"`
	SettledOrders  int `json:"settled_orders"`
	FilteredOrders int `json:"filtered_orders"`
	TotalDrivers   int `json:"total_drivers"`

	ClassCounts map[models.SettlementClass]int `json:"class_counts"`

	TotalBaseEarnings decimal.Decimal `json:"total_base_earnings"`
	TotalAdvances     decimal.Decimal `json:"total_advances"`
	TotalCredits      decimal.Decimal `json:"total_credits"`
	TotalNet          decimal.Decimal `json:"total_net"`

	ProcessingDuration time.Duration `json:"processing_duration"`
	DateRange          *DateRange    `json:"date_range,omitempty"`
}

// Result contains the complete output of a settlement run.
type Result struct {
	// RunID and ProcessedAt are informational metadata only; they never
	// influence a monetary value.
	RunID       string    `json:"run_id"`
	ProcessedAt time.Time `json:"processed_at"`

	// Rows is the settlement report, one row per distinct driver identity,
	// in first-appearance order of the orders table.
	Rows []*models.SettlementRow `json:"rows"`

	// Orders keeps every classified order with its class label and
	// contribution, for audit and the per-driver detail view.
	Orders []*models.ClassifiedOrder `json:"orders,omitempty"`

	Summary  *Summary  `json:"summary"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// OrdersForDriver returns the classified orders aggregated under the given
// normalized phone, in input order.
func (r *Result) OrdersForDriver(phone string) []*models.ClassifiedOrder {
	var out []*models.ClassifiedOrder
	for _, o := range r.Orders {
		if o.Phone == phone {
			out = append(out, o)
		}
	}
	return out
}

// SettlementService runs the classification, formula, aggregation, and
// reconciliation pipeline.
type SettlementService struct {
	config   *Config
	resolver *schema.Resolver
	formulas *formula.Engine
	logger   logger.Logger
}

// NewSettlementService creates a settlement service from the given
// configuration.
func NewSettlementService(config *Config) (*SettlementService, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	formulas := formula.NewEngine(config.FormulaOverrides)
	if err := formulas.Validate(); err != nil {
		return nil, fmt.Errorf("invalid formula table: %w", err)
	}

	resolver := schema.NewResolver()
	if len(config.ExtraSynonyms) > 0 {
		resolver = schema.NewResolverWithSynonyms(config.ExtraSynonyms)
	}

	return &SettlementService{
		config:   config,
		resolver: resolver,
		formulas: formulas,
		logger:   logger.GetGlobalLogger().WithComponent("engine"),
	}, nil
}

// ProcessSettlement performs one complete settlement run.
func (s *SettlementService) ProcessSettlement(ctx context.Context, request *Request) (*Result, error) {
	if err := request.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategorySettlement, errors.CodeProcessingError, "invalid request")
	}

	startTime := time.Now()
	result := &Result{
		RunID:       uuid.NewString(),
		ProcessedAt: startTime,
		Summary: &Summary{
			ClassCounts: make(map[models.SettlementClass]int),
		},
	}

	if s.config.StartDate != nil && s.config.EndDate != nil {
		result.Summary.DateRange = &DateRange{
			Start: *s.config.StartDate,
			End:   *s.config.EndDate,
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 1: resolve the orders schema. Driver phone and driver payout
	// are critical; their absence aborts before any computation.
	columns, err := s.resolveOrderColumns(request.Orders, result)
	if err != nil {
		return nil, err
	}

	// Step 2: build the deferred restaurant set and the classifier.
	deferred := s.buildDeferredSet(request.DeferredRestaurants, result)
	classifier := classify.NewClassifier(deferred)

	// Step 3: classify and price every order row.
	s.classifyOrders(request.Orders, columns, classifier, result)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: aggregate contributions per driver.
	earnings := s.aggregate(result.Orders)

	// Step 5: merge external ledgers and compute final balances.
	advances := s.sumLedger(request.Advances, "advances", schema.FieldAdvanceAmount, result)
	credits := s.sumLedger(request.Credits, "credits", schema.FieldCreditAmount, result)
	references := s.collectBankReferences(request.BankReferences, result)
	passthrough := s.collectReferencePassthrough(result.Orders)

	result.Rows = s.buildRows(earnings, advances, credits, references, passthrough)

	if len(result.Rows) == 0 {
		warnErr := errors.NoMatchingRowsError("no rows survived parsing and filtering")
		result.Warnings = append(result.Warnings, Warning{
			Code:    errors.CodeNoMatchingRows,
			Message: warnErr.Message,
		})
		s.logger.Warn(warnErr.Message)
	}

	s.summarize(result)
	result.Summary.ProcessingDuration = time.Since(startTime)

	s.logger.WithFields(logger.Fields{
		"run_id":  result.RunID,
		"orders":  result.Summary.SettledOrders,
		"drivers": result.Summary.TotalDrivers,
	}).Info("Settlement run complete")

	return result, nil
}

// GetConfiguration returns the current configuration.
func (s *SettlementService) GetConfiguration() *Config {
	return s.config
}

func (s *SettlementService) warn(result *Result, code errors.ErrorCode, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	result.Warnings = append(result.Warnings, Warning{Code: code, Message: message})
	s.logger.Warn(message)
}

func (s *SettlementService) summarize(result *Result) {
	summary := result.Summary
	summary.SettledOrders = len(result.Orders)
	summary.TotalDrivers = len(result.Rows)

	base, advance, credit, net := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, row := range result.Rows {
		base = base.Add(row.BaseEarnings)
		advance = advance.Add(row.AdvanceTotal)
		credit = credit.Add(row.CreditTotal)
		net = net.Add(row.NetSettlement)
	}

	summary.TotalBaseEarnings = base
	summary.TotalAdvances = advance
	summary.TotalCredits = credit
	summary.TotalNet = net

	for _, o := range result.Orders {
		summary.ClassCounts[o.Class]++
	}
}
