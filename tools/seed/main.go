// Command seed generates synthetic transaction and customer CSV files for
// local runs. Customer purchase behavior is drawn from a handful of personas
// so that the generated population spreads across segments instead of
// collapsing into one.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

type persona struct {
	name string
	// ordersPerYear is the mean purchase rate
	ordersPerYear float64
	// meanAmount and amountSigma parameterize the lognormal order value
	meanAmount  float64
	amountSigma float64
	// churnAfterDays stops generating orders this many days before the end
	// of the window (0 means active until the end)
	churnAfterDays int
	// weight is the relative share of the population
	weight float64
}

var personas = []persona{
	{name: "champion", ordersPerYear: 26, meanAmount: 140, amountSigma: 0.5, weight: 0.08},
	{name: "loyal", ordersPerYear: 12, meanAmount: 80, amountSigma: 0.4, weight: 0.20},
	{name: "big_spender", ordersPerYear: 5, meanAmount: 450, amountSigma: 0.7, weight: 0.07},
	{name: "regular", ordersPerYear: 6, meanAmount: 55, amountSigma: 0.4, weight: 0.30},
	{name: "drifting", ordersPerYear: 8, meanAmount: 70, amountSigma: 0.4, churnAfterDays: 200, weight: 0.15},
	{name: "lapsed", ordersPerYear: 10, meanAmount: 95, amountSigma: 0.5, churnAfterDays: 420, weight: 0.10},
	{name: "one_timer", ordersPerYear: 1, meanAmount: 40, amountSigma: 0.3, weight: 0.10},
}

var categories = []string{
	"electronics", "apparel", "home", "grocery", "beauty", "sports", "toys", "books",
}

var locations = []string{
	"Austin", "Berlin", "Lisbon", "London", "Melbourne", "Osaka", "Toronto", "Warsaw",
}

func main() {
	var (
		customers = flag.Int("customers", 5000, "Number of customers to generate")
		days      = flag.Int("days", 730, "History length in days ending today")
		seed      = flag.Int64("seed", 42, "Random seed")
		outDir    = flag.String("out", "testdata", "Output directory")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -*days)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	txPath := filepath.Join(*outDir, "transactions.csv")
	custPath := filepath.Join(*outDir, "customers.csv")

	txFile, err := os.Create(txPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", txPath, err)
		os.Exit(1)
	}
	defer txFile.Close()

	custFile, err := os.Create(custPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", custPath, err)
		os.Exit(1)
	}
	defer custFile.Close()

	txWriter := csv.NewWriter(txFile)
	custWriter := csv.NewWriter(custFile)

	if err := txWriter.Write([]string{"transaction_id", "customer_id", "timestamp", "amount", "product_category"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write header: %v\n", err)
		os.Exit(1)
	}
	if err := custWriter.Write([]string{"customer_id", "name", "registration_date", "location"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write header: %v\n", err)
		os.Exit(1)
	}

	bar := progressbar.Default(int64(*customers), "generating customers")

	txCount := 0
	for i := 0; i < *customers; i++ {
		p := pickPersona(rng)
		customerID := uuid.NewString()

		registration := start.AddDate(0, 0, rng.Intn(*days))
		if err := custWriter.Write([]string{
			customerID,
			fmt.Sprintf("Customer %05d", i+1),
			registration.Format("2006-01-02"),
			locations[rng.Intn(len(locations))],
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write customer: %v\n", err)
			os.Exit(1)
		}

		activeEnd := end
		if p.churnAfterDays > 0 {
			activeEnd = end.AddDate(0, 0, -p.churnAfterDays)
		}
		if !activeEnd.After(registration) {
			_ = bar.Add(1)
			continue
		}

		activeDays := int(activeEnd.Sub(registration).Hours() / 24)
		orders := poisson(rng, p.ordersPerYear*float64(activeDays)/365)
		for j := 0; j < orders; j++ {
			ts := registration.Add(time.Duration(rng.Int63n(int64(activeEnd.Sub(registration)))))
			amount := lognormal(rng, p.meanAmount, p.amountSigma)
			if err := txWriter.Write([]string{
				uuid.NewString(),
				customerID,
				ts.Format(time.RFC3339),
				strconv.FormatFloat(amount, 'f', 2, 64),
				categories[rng.Intn(len(categories))],
			}); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write transaction: %v\n", err)
				os.Exit(1)
			}
			txCount++
		}

		_ = bar.Add(1)
	}

	txWriter.Flush()
	custWriter.Flush()
	if err := txWriter.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush transactions: %v\n", err)
		os.Exit(1)
	}
	if err := custWriter.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush customers: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d customers and %d transactions to %s\n", *customers, txCount, *outDir)
}

func pickPersona(rng *rand.Rand) persona {
	r := rng.Float64()
	acc := 0.0
	for _, p := range personas {
		acc += p.weight
		if r < acc {
			return p
		}
	}
	return personas[len(personas)-1]
}

// lognormal draws an order value with the given mean and shape
func lognormal(rng *rand.Rand, mean, sigma float64) float64 {
	mu := math.Log(mean) - sigma*sigma/2
	return math.Exp(mu + sigma*rng.NormFloat64())
}

// poisson draws an order count via Knuth's method, falling back to a normal
// approximation for large rates
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	if lambda > 50 {
		n := int(math.Round(lambda + math.Sqrt(lambda)*rng.NormFloat64()))
		if n < 0 {
			return 0
		}
		return n
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
