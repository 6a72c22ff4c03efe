package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/shopspring/decimal"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// Aggregator reduces a transaction stream into one RFM profile per customer.
// It is a pure transform: the same input always produces the same profile
// set, and nothing outside the returned slice is mutated.
type Aggregator struct {
	poolSize int
}

// NewAggregator creates a new metric aggregator. poolSize bounds the number
// of customers processed concurrently.
func NewAggregator(poolSize int) *Aggregator {
	if poolSize <= 0 {
		poolSize = 8
	}
	return &Aggregator{poolSize: poolSize}
}

// Aggregate computes an RFMProfile for every customer in scope. The
// population is the union of the customer dimension and the customer IDs seen
// in transactions; customers with zero qualifying transactions are retained
// with null-safe defaults (recency sentinel, zero frequency/monetary, nil
// volatility).
//
// It fails if the as-of date precedes any transaction timestamp, if a
// transaction is missing a required field, or if an amount is negative. These
// are input errors: the whole run aborts and no profile set is returned.
func (a *Aggregator) Aggregate(ctx context.Context, txs []domain.Transaction, customers []domain.Customer, params domain.RunParams) ([]domain.RFMProfile, error) {
	byCustomer := make(map[string][]domain.Transaction)

	windowStart := params.WindowStart()
	for i := range txs {
		tx := &txs[i]
		if tx.CustomerID == "" || tx.Timestamp.IsZero() {
			return nil, domain.NewStageError(domain.StageAggregate, tx.ID, domain.ErrMissingField)
		}
		if tx.Amount.IsNegative() {
			return nil, domain.NewStageError(domain.StageAggregate, tx.ID, domain.ErrNegativeAmount)
		}
		if tx.Timestamp.After(params.AsOf) {
			return nil, domain.NewStageError(domain.StageAggregate, tx.ID,
				fmt.Errorf("%w: transaction at %s, as-of %s",
					domain.ErrAsOfBeforeData, tx.Timestamp.Format(time.RFC3339), params.AsOf.Format(time.RFC3339)))
		}
		if tx.Timestamp.Before(windowStart) {
			continue
		}
		byCustomer[tx.CustomerID] = append(byCustomer[tx.CustomerID], *tx)
	}

	// Population is the union of the dimension and observed transaction
	// customers, sorted for deterministic output.
	ids := make(map[string]struct{}, len(customers)+len(byCustomer))
	for i := range customers {
		if customers[i].ID == "" {
			return nil, domain.NewStageError(domain.StageAggregate, customers[i].Name, domain.ErrMissingField)
		}
		ids[customers[i].ID] = struct{}{}
	}
	for id := range byCustomer {
		ids[id] = struct{}{}
	}
	ordered := make([]string, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	profiles := make([]domain.RFMProfile, len(ordered))
	pool := pond.NewPool(a.poolSize, pond.WithContext(ctx))
	for i, id := range ordered {
		pool.Submit(func() {
			profiles[i] = buildProfile(id, byCustomer[id], params.AsOf)
		})
	}
	pool.StopAndWait()

	if err := ctx.Err(); err != nil {
		return nil, domain.NewStageError(domain.StageAggregate, "", err)
	}
	return profiles, nil
}

// buildProfile computes the metrics for a single customer from its own
// transaction subset. Safe to run concurrently across customers.
func buildProfile(customerID string, txs []domain.Transaction, asOf time.Time) domain.RFMProfile {
	profile := domain.RFMProfile{
		CustomerID:    customerID,
		RecencyDays:   domain.RecencySentinelDays,
		Monetary:      decimal.Zero,
		AvgOrderValue: decimal.Zero,
	}
	if len(txs) == 0 {
		return profile
	}

	first := txs[0].Timestamp
	last := txs[0].Timestamp
	total := decimal.Zero
	months := make(map[string]struct{})
	categories := make(map[string]struct{})
	for i := range txs {
		tx := &txs[i]
		if tx.Timestamp.Before(first) {
			first = tx.Timestamp
		}
		if tx.Timestamp.After(last) {
			last = tx.Timestamp
		}
		total = total.Add(tx.Amount)
		months[tx.Timestamp.Format("2006-01")] = struct{}{}
		if tx.ProductCategory != "" {
			categories[tx.ProductCategory] = struct{}{}
		}
	}

	profile.Frequency = len(txs)
	profile.Monetary = total
	profile.AvgOrderValue = total.Div(decimal.NewFromInt(int64(len(txs)))).Round(2)
	profile.RecencyDays = daysBetween(last, asOf)
	profile.LifespanDays = daysBetween(first, last)
	profile.ActivePeriods = len(months)
	profile.CategoryDiversity = len(categories)
	profile.FirstPurchase = &first
	profile.LastPurchase = &last

	// Volatility is undefined with fewer than 2 samples; it stays nil so
	// downstream stages treat it as unknown rather than zero.
	if len(txs) >= 2 {
		vol := amountStdDev(txs)
		profile.SpendVolatility = &vol
	}
	return profile
}

// amountStdDev computes the sample standard deviation of transaction amounts
func amountStdDev(txs []domain.Transaction) float64 {
	n := float64(len(txs))
	sum := 0.0
	for i := range txs {
		sum += txs[i].Amount.InexactFloat64()
	}
	mean := sum / n

	ss := 0.0
	for i := range txs {
		d := txs[i].Amount.InexactFloat64() - mean
		ss += d * d
	}
	return math.Sqrt(ss / (n - 1))
}

// daysBetween returns the whole number of days from a to b (b after a)
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
