package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"driver-settlement-engine/cmd/settler/config"
	"driver-settlement-engine/internal/engine"
	"driver-settlement-engine/internal/parsers"
	"driver-settlement-engine/internal/reporter"
	"driver-settlement-engine/internal/schema"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the settle command
var (
	orderFiles    []string
	advancesFile  string
	creditsFile   string
	bankRefsFile  string
	deferredFile  string
	outputFormat  string
	outputFile    string
	startDate     string
	endDate       string
	countryCode   string
	delimiter     string
	includeDetail bool
)

// settleCmd represents the settle command
var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Compute net settlements per driver from order exports",
	Long: `Settle loads one or more order export files, classifies every order into
its payout class, prices it, aggregates per driver, merges the optional
advance, credit, and bank-reference ledgers, and reports one net settlement
row per driver.

This command requires:
- One or more order export files (CSV format)

Optional enrichment files degrade gracefully when absent:
- Advances ledger (amounts already paid out, deducted)
- Credits ledger (amounts owed to drivers, added)
- Bank reference file (account references, joined by account holder name)
- Deferred restaurants list (restaurants billed on delayed terms)

Examples:
  # Basic settlement
  settler settle --orders orders.csv

  # Multiple order files with ledgers and a date range
  settler settle --orders week1.csv,week2.csv \
    --advances advances.csv --credits credits.csv --bank-refs rib.csv \
    --deferred cashco.csv --start-date 2026-01-01 --end-date 2026-01-15

  # CSV export with per-order detail in the logs
  settler settle --orders orders.csv --output-format csv --output-file report.csv`,

	PreRunE: validateSettleFlags,
	RunE:    runSettle,
}

func init() {
	rootCmd.AddCommand(settleCmd)

	// Required flags
	settleCmd.Flags().StringSliceVar(&orderFiles, "orders", []string{}, "comma-separated paths to order export CSV files (required)")

	// Optional ledger flags
	settleCmd.Flags().StringVar(&advancesFile, "advances", "", "path to advances ledger CSV")
	settleCmd.Flags().StringVar(&creditsFile, "credits", "", "path to credits ledger CSV")
	settleCmd.Flags().StringVar(&bankRefsFile, "bank-refs", "", "path to bank reference CSV")
	settleCmd.Flags().StringVar(&deferredFile, "deferred", "", "path to deferred restaurants CSV")

	// Output flags
	settleCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	settleCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	settleCmd.Flags().BoolVar(&includeDetail, "detail", false, "include per-order classification detail")

	// Run configuration flags
	settleCmd.Flags().StringVar(&startDate, "start-date", "", "filter start date (YYYY-MM-DD)")
	settleCmd.Flags().StringVar(&endDate, "end-date", "", "filter end date (YYYY-MM-DD)")
	settleCmd.Flags().StringVar(&countryCode, "country-code", "", "phone country calling code (default 212)")
	settleCmd.Flags().StringVar(&delimiter, "delimiter", "", "CSV delimiter (default: auto-detect)")

	settleCmd.MarkFlagRequired("orders")

	// Bind flags to viper
	viper.BindPFlag("orders", settleCmd.Flags().Lookup("orders"))
	viper.BindPFlag("advances", settleCmd.Flags().Lookup("advances"))
	viper.BindPFlag("credits", settleCmd.Flags().Lookup("credits"))
	viper.BindPFlag("bank-refs", settleCmd.Flags().Lookup("bank-refs"))
	viper.BindPFlag("deferred", settleCmd.Flags().Lookup("deferred"))
	viper.BindPFlag("output-format", settleCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", settleCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("detail", settleCmd.Flags().Lookup("detail"))
	viper.BindPFlag("start-date", settleCmd.Flags().Lookup("start-date"))
	viper.BindPFlag("end-date", settleCmd.Flags().Lookup("end-date"))
	viper.BindPFlag("country-code", settleCmd.Flags().Lookup("country-code"))
	viper.BindPFlag("delimiter", settleCmd.Flags().Lookup("delimiter"))
}

func validateSettleFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	orderFiles = viper.GetStringSlice("orders")
	advancesFile = viper.GetString("advances")
	creditsFile = viper.GetString("credits")
	bankRefsFile = viper.GetString("bank-refs")
	deferredFile = viper.GetString("deferred")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	includeDetail = viper.GetBool("detail")
	startDate = viper.GetString("start-date")
	endDate = viper.GetString("end-date")
	countryCode = viper.GetString("country-code")
	delimiter = viper.GetString("delimiter")

	if len(orderFiles) == 0 {
		return fmt.Errorf("at least one orders file is required")
	}

	for i, f := range orderFiles {
		if err := validateFileExists(f, fmt.Sprintf("orders file %d", i+1)); err != nil {
			return err
		}
	}

	// Optional files are validated only when given.
	optional := map[string]string{
		"advances file":             advancesFile,
		"credits file":              creditsFile,
		"bank reference file":       bankRefsFile,
		"deferred restaurants file": deferredFile,
	}
	for description, path := range optional {
		if path == "" {
			continue
		}
		if err := validateFileExists(path, description); err != nil {
			return err
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if startDate != "" {
		if _, err := time.Parse("2006-01-02", startDate); err != nil {
			return fmt.Errorf("invalid start date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if endDate != "" {
		if _, err := time.Parse("2006-01-02", endDate); err != nil {
			return fmt.Errorf("invalid end date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if startDate != "" && endDate != "" {
		start, _ := time.Parse("2006-01-02", startDate)
		end, _ := time.Parse("2006-01-02", endDate)
		if start.After(end) {
			return fmt.Errorf("start date cannot be after end date")
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runSettle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	errorHandler := NewCLIErrorHandler()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting settlement run...\n")
		fmt.Fprintf(os.Stderr, "Order files: %s\n", strings.Join(orderFiles, ", "))
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
	}

	loaderConfig, err := config.CreateLoaderConfig(delimiter)
	if err != nil {
		return err
	}
	loader := parsers.NewTableLoader(loaderConfig)

	orders, err := loader.LoadTables(orderFiles)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	loadOptional := func(path string) (*schema.Table, error) {
		if path == "" {
			return nil, nil
		}
		return loader.LoadTable(path)
	}

	advances, err := loadOptional(advancesFile)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}
	credits, err := loadOptional(creditsFile)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}
	bankRefs, err := loadOptional(bankRefsFile)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}
	deferred, err := loadOptional(deferredFile)
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	engineConfig, err := config.CreateEngineConfig(countryCode, startDate, endDate)
	if err != nil {
		return err
	}

	service, err := engine.NewSettlementService(engineConfig)
	if err != nil {
		return fmt.Errorf("failed to create settlement service: %w", err)
	}

	result, err := service.ProcessSettlement(ctx, &engine.Request{
		Orders:              orders,
		Advances:            advances,
		Credits:             credits,
		BankReferences:      bankRefs,
		DeferredRestaurants: deferred,
	})
	if err != nil {
		os.Exit(errorHandler.HandleError(err))
	}

	reportConfig := config.CreateReportConfig(outputFormat, includeDetail)
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReport(result, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nSettlement completed.\n")
		fmt.Fprintf(os.Stderr, "Settled %d orders across %d drivers.\n",
			result.Summary.SettledOrders, result.Summary.TotalDrivers)
		if len(result.Warnings) > 0 {
			fmt.Fprintf(os.Stderr, "%d warnings were recorded; see the report.\n", len(result.Warnings))
		}
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Summary.ProcessingDuration)
	}

	return nil
}
