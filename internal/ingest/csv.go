package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retail-pulse/segmentation-engine/internal/adapter"
	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/logger"
)

// Accepted timestamp layouts, tried in order
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Loader reads transaction and customer CSV files into domain records,
// enforcing the engine's input contract: malformed rows fail the load with a
// descriptive error naming the offending record, they are never silently
// dropped or patched.
type Loader struct {
	clock adapter.Clock
}

// NewLoader creates a new CSV loader
func NewLoader(clock adapter.Clock) *Loader {
	return &Loader{clock: clock}
}

// LoadTransactions reads a transaction CSV file.
// Expected header: transaction_id,customer_id,timestamp,amount,product_category
func (l *Loader) LoadTransactions(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions file: %w", err)
	}
	defer f.Close()
	return l.ReadTransactions(f)
}

// ReadTransactions parses transaction records from r. Exact duplicates of
// (customer, timestamp, amount) are collapsed to the first occurrence and
// logged; everything else invalid aborts the load.
func (l *Loader) ReadTransactions(r io.Reader) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewStageError(domain.StageIngest, "", fmt.Errorf("failed to read header: %w", err))
	}
	col, err := columnIndex(header, "transaction_id", "customer_id", "timestamp", "amount")
	if err != nil {
		return nil, domain.NewStageError(domain.StageIngest, "", err)
	}
	categoryIdx := optionalColumn(header, "product_category")

	now := l.clock.Now()
	seen := make(map[string]struct{})
	duplicates := 0

	var txs []domain.Transaction
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewStageError(domain.StageIngest, fmt.Sprintf("line %d", line), err)
		}

		ref := record[col["transaction_id"]]
		if ref == "" {
			ref = fmt.Sprintf("line %d", line)
		}
		if record[col["transaction_id"]] == "" || record[col["customer_id"]] == "" {
			return nil, domain.NewStageError(domain.StageIngest, ref, domain.ErrMissingField)
		}

		ts, err := parseTimestamp(record[col["timestamp"]])
		if err != nil {
			return nil, domain.NewStageError(domain.StageIngest, ref, err)
		}
		if ts.After(now) {
			return nil, domain.NewStageError(domain.StageIngest, ref,
				fmt.Errorf("transaction timestamp %s is in the future", ts.Format(time.RFC3339)))
		}

		amount, err := decimal.NewFromString(record[col["amount"]])
		if err != nil {
			return nil, domain.NewStageError(domain.StageIngest, ref, fmt.Errorf("invalid amount: %w", err))
		}
		if amount.IsNegative() {
			return nil, domain.NewStageError(domain.StageIngest, ref, domain.ErrNegativeAmount)
		}

		// Duplicate purchases share customer, timestamp and amount; keep the
		// first occurrence.
		dupKey := record[col["customer_id"]] + "|" + ts.Format(time.RFC3339) + "|" + amount.String()
		if _, ok := seen[dupKey]; ok {
			duplicates++
			continue
		}
		seen[dupKey] = struct{}{}

		category := ""
		if categoryIdx >= 0 {
			category = record[categoryIdx]
		}
		txs = append(txs, domain.Transaction{
			ID:              record[col["transaction_id"]],
			CustomerID:      record[col["customer_id"]],
			Timestamp:       ts,
			Amount:          amount,
			ProductCategory: category,
		})
	}

	if duplicates > 0 {
		logger.Warn("Collapsed duplicate transactions", zap.Int("count", duplicates))
	}
	return txs, nil
}

// LoadCustomers reads a customer dimension CSV file.
// Expected header: customer_id,name,registration_date,location
func (l *Loader) LoadCustomers(path string) ([]domain.Customer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open customers file: %w", err)
	}
	defer f.Close()
	return l.ReadCustomers(f)
}

// ReadCustomers parses customer records from r
func (l *Loader) ReadCustomers(r io.Reader) ([]domain.Customer, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewStageError(domain.StageIngest, "", fmt.Errorf("failed to read header: %w", err))
	}
	col, err := columnIndex(header, "customer_id")
	if err != nil {
		return nil, domain.NewStageError(domain.StageIngest, "", err)
	}
	nameIdx := optionalColumn(header, "name")
	regIdx := optionalColumn(header, "registration_date")
	locIdx := optionalColumn(header, "location")

	var customers []domain.Customer
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewStageError(domain.StageIngest, fmt.Sprintf("line %d", line), err)
		}
		if record[col["customer_id"]] == "" {
			return nil, domain.NewStageError(domain.StageIngest, fmt.Sprintf("line %d", line), domain.ErrMissingField)
		}

		c := domain.Customer{ID: record[col["customer_id"]]}
		if nameIdx >= 0 {
			c.Name = record[nameIdx]
		}
		if locIdx >= 0 {
			c.Location = record[locIdx]
		}
		if regIdx >= 0 && record[regIdx] != "" {
			reg, err := parseTimestamp(record[regIdx])
			if err != nil {
				return nil, domain.NewStageError(domain.StageIngest, c.ID, err)
			}
			c.RegistrationDate = reg
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// columnIndex maps required column names to their positions
func columnIndex(header []string, required ...string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: column %q", domain.ErrMissingField, name)
		}
	}
	return col, nil
}

// optionalColumn returns the position of a column or -1
func optionalColumn(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// parseTimestamp tries the accepted layouts in order
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
