// Command settlement_generator produces sample input files for manual runs
// of the settler CLI: an order export plus the optional advance, credit,
// bank reference, and deferred restaurant files, with identities that join
// across files the way real exports do (mixed phone spellings, cased names).
//
// Usage:
//
//	go run settlement_generator.go -output-dir ../generated -drivers 25 -orders 500
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type driver struct {
	Name  string
	Phone string // local spelling, leading zero
}

type restaurant struct {
	ID       string
	Name     string
	Deferred bool
}

var firstNames = []string{"Ahmed", "Sara", "Youssef", "Fatima", "Omar", "Khadija", "Mehdi", "Salma", "Hamza", "Nadia"}
var lastNames = []string{"Benali", "Idrissi", "El Amrani", "Bouazza", "Tazi", "Berrada", "Chraibi", "Lahlou"}
var restaurantNames = []string{"Tacos du Coin", "Sushi Place", "Pizza Palace", "Snack Atlas", "Grill House", "Dar Couscous"}

func main() {
	var (
		outputDir  = flag.String("output-dir", "../generated", "output directory for generated files")
		numDrivers = flag.Int("drivers", 20, "number of distinct drivers")
		numOrders  = flag.Int("orders", 400, "number of order rows")
		startDate  = flag.String("start-date", "2026-01-01", "first order date (YYYY-MM-DD)")
		days       = flag.Int("days", 14, "number of days orders spread over")
		seed       = flag.Int64("seed", 42, "random seed for reproducible generation")
		ledgerRate = flag.Float64("ledger-rate", 0.6, "share of drivers appearing in the advance and credit ledgers")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	drivers := makeDrivers(rng, *numDrivers)
	restaurants := makeRestaurants(rng)

	writeOrders(*outputDir, rng, drivers, restaurants, *numOrders, start, *days)
	writeAdvances(*outputDir, rng, drivers, *ledgerRate)
	writeCredits(*outputDir, rng, drivers, *ledgerRate)
	writeBankReferences(*outputDir, rng, drivers)
	writeDeferred(*outputDir, restaurants)

	fmt.Printf("Generated %d orders for %d drivers in %s\n", *numOrders, *numDrivers, *outputDir)
	fmt.Println("Run the settler against them with:")
	fmt.Printf("  settler settle --orders %s/orders.csv --advances %s/advances.csv \\\n",
		*outputDir, *outputDir)
	fmt.Printf("    --credits %s/credits.csv --bank-refs %s/rib.csv --deferred %s/cashco.csv\n",
		*outputDir, *outputDir, *outputDir)
}

func makeDrivers(rng *rand.Rand, n int) []driver {
	drivers := make([]driver, n)
	for i := range drivers {
		drivers[i] = driver{
			Name:  firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			Phone: fmt.Sprintf("06%08d", rng.Intn(100000000)),
		}
	}
	return drivers
}

func makeRestaurants(rng *rand.Rand) []restaurant {
	restaurants := make([]restaurant, len(restaurantNames))
	for i, name := range restaurantNames {
		restaurants[i] = restaurant{
			ID:       fmt.Sprintf("R%03d", i+1),
			Name:     name,
			Deferred: rng.Float64() < 0.3,
		}
	}
	return restaurants
}

// phoneSpelling returns one of several raw spellings of the same number, so
// generated data exercises phone normalization.
func phoneSpelling(rng *rand.Rand, local string) string {
	switch rng.Intn(4) {
	case 0:
		return "+212" + local[1:]
	case 1:
		return "00212" + local[1:]
	case 2:
		var spaced strings.Builder
		for i, r := range local {
			if i > 0 && i%2 == 0 {
				spaced.WriteByte(' ')
			}
			spaced.WriteRune(r)
		}
		return spaced.String()
	default:
		return local
	}
}

func amount(rng *rand.Rand, min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(min + rng.Float64()*(max-min)).Round(2)
}

func writeOrders(dir string, rng *rand.Rand, drivers []driver, restaurants []restaurant, count int, start time.Time, days int) {
	header := []string{
		"order id", "driver phone", "driver name", "restaurant id", "restaurant name",
		"payment method", "status", "services", "item total", "driver payout",
		"bonus amount", "service charge", "restaurant commission", "coupon", "order day",
	}

	rows := make([][]string, 0, count)
	for i := 0; i < count; i++ {
		d := drivers[rng.Intn(len(drivers))]
		r := restaurants[rng.Intn(len(restaurants))]

		payment := "CASH"
		if rng.Float64() < 0.35 {
			payment = "CARD"
		}
		status := "delivered"
		if rng.Float64() < 0.05 {
			status = "returned"
		}
		services := "food"
		if rng.Float64() < 0.1 {
			services = "yassir market"
		}

		when := start.AddDate(0, 0, rng.Intn(days)).
			Add(time.Duration(rng.Intn(24*60)) * time.Minute)

		coupon := "0"
		if rng.Float64() < 0.2 {
			coupon = amount(rng, 5, 20).String()
		}

		rows = append(rows, []string{
			fmt.Sprintf("O-%05d", i+1),
			phoneSpelling(rng, d.Phone),
			d.Name,
			r.ID,
			r.Name,
			payment,
			status,
			services,
			amount(rng, 40, 300).String(),
			amount(rng, 15, 45).String(),
			amount(rng, 0, 10).String(),
			amount(rng, 2, 6).String(),
			amount(rng, 5, 25).String(),
			coupon,
			when.Format("02/01/2006 15:04"),
		})
	}

	writeCSV(filepath.Join(dir, "orders.csv"), header, rows)
}

func writeAdvances(dir string, rng *rand.Rand, drivers []driver, rate float64) {
	var rows [][]string
	for _, d := range drivers {
		if rng.Float64() > rate {
			continue
		}
		// Some drivers get several advance rows; the engine must sum them.
		for n := 1 + rng.Intn(2); n > 0; n-- {
			rows = append(rows, []string{phoneSpelling(rng, d.Phone), amount(rng, 50, 400).String()})
		}
	}
	writeCSV(filepath.Join(dir, "advances.csv"), []string{"driver phone", "avance"}, rows)
}

func writeCredits(dir string, rng *rand.Rand, drivers []driver, rate float64) {
	var rows [][]string
	for _, d := range drivers {
		if rng.Float64() > rate {
			continue
		}
		// Comma decimal separator, as the real credit exports use.
		cents := amount(rng, 10, 150).StringFixed(2)
		rows = append(rows, []string{phoneSpelling(rng, d.Phone), strings.ReplaceAll(cents, ".", ",")})
	}
	writeCSV(filepath.Join(dir, "credits.csv"), []string{"driver phone", "amount"}, rows)
}

func writeBankReferences(dir string, rng *rand.Rand, drivers []driver) {
	var rows [][]string
	for _, d := range drivers {
		if rng.Float64() < 0.2 {
			continue
		}
		ref := fmt.Sprintf("MA%012d", rng.Int63n(1000000000000))
		// Names arrive upper-cased in the bank file; joining relies on
		// name normalization.
		rows = append(rows, []string{strings.ToUpper(d.Name), ref})
	}
	writeCSV(filepath.Join(dir, "rib.csv"), []string{"intitulé du compte", "rib"}, rows)
}

func writeDeferred(dir string, restaurants []restaurant) {
	var rows [][]string
	for _, r := range restaurants {
		if r.Deferred {
			rows = append(rows, []string{r.ID, r.Name})
		}
	}
	writeCSV(filepath.Join(dir, "cashco.csv"), []string{"restaurant id", "restaurant name"}, rows)
}

func writeCSV(path string, header []string, rows [][]string) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		log.Fatalf("Failed to write header to %s: %v", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			log.Fatalf("Failed to write row to %s: %v", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("Failed to flush %s: %v", path, err)
	}
}
