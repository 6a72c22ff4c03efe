package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/engine"
)

var asOf = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func tx(id, customerID string, ts time.Time, amount float64, category string) domain.Transaction {
	return domain.Transaction{
		ID:              id,
		CustomerID:      customerID,
		Timestamp:       ts,
		Amount:          decimal.NewFromFloat(amount),
		ProductCategory: category,
	}
}

func TestAggregateComputesMetrics(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "c1", asOf.AddDate(0, 0, -100), 10, "books"),
		tx("t2", "c1", asOf.AddDate(0, 0, -40), 20, "books"),
		tx("t3", "c1", asOf.AddDate(0, 0, -10), 30, "toys"),
	}
	params := domain.RunParams{AsOf: asOf, LookbackDays: 730, Granularity: domain.CohortMonthly, HorizonYears: 1}

	profiles, err := engine.NewAggregator(4).Aggregate(context.Background(), txs, nil, params)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, "c1", p.CustomerID)
	assert.Equal(t, 10, p.RecencyDays)
	assert.Equal(t, 3, p.Frequency)
	assert.True(t, p.Monetary.Equal(decimal.NewFromInt(60)))
	assert.True(t, p.AvgOrderValue.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, 90, p.LifespanDays)
	assert.Equal(t, 3, p.ActivePeriods)
	assert.Equal(t, 2, p.CategoryDiversity)
	require.NotNil(t, p.SpendVolatility)
	assert.InDelta(t, 10.0, *p.SpendVolatility, 1e-9)
	require.NotNil(t, p.FirstPurchase)
	require.NotNil(t, p.LastPurchase)
	assert.True(t, p.FirstPurchase.Equal(txs[0].Timestamp))
	assert.True(t, p.LastPurchase.Equal(txs[2].Timestamp))
}

func TestAggregateZeroTransactionCustomer(t *testing.T) {
	customers := []domain.Customer{{ID: "ghost", Name: "Ghost"}}
	params := domain.RunParams{AsOf: asOf, LookbackDays: 730}

	profiles, err := engine.NewAggregator(4).Aggregate(context.Background(), nil, customers, params)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, "ghost", p.CustomerID)
	assert.Equal(t, domain.RecencySentinelDays, p.RecencyDays)
	assert.Equal(t, 0, p.Frequency)
	assert.True(t, p.Monetary.IsZero())
	assert.True(t, p.AvgOrderValue.IsZero())
	assert.Nil(t, p.SpendVolatility)
	assert.Nil(t, p.FirstPurchase)
	assert.Nil(t, p.LastPurchase)
}

func TestAggregateSingleTransactionHasNilVolatility(t *testing.T) {
	txs := []domain.Transaction{tx("t1", "c1", asOf.AddDate(0, 0, -5), 42, "")}
	params := domain.RunParams{AsOf: asOf, LookbackDays: 730}

	profiles, err := engine.NewAggregator(4).Aggregate(context.Background(), txs, nil, params)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	assert.Nil(t, profiles[0].SpendVolatility)
	assert.Equal(t, 0, profiles[0].LifespanDays)
	assert.Equal(t, 0, profiles[0].CategoryDiversity)
}

func TestAggregateWindowFilter(t *testing.T) {
	txs := []domain.Transaction{
		tx("old", "c1", asOf.AddDate(0, 0, -800), 500, ""),
		tx("recent", "c1", asOf.AddDate(0, 0, -20), 50, ""),
	}
	params := domain.RunParams{AsOf: asOf, LookbackDays: 730}

	profiles, err := engine.NewAggregator(4).Aggregate(context.Background(), txs, nil, params)
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	assert.Equal(t, 1, profiles[0].Frequency)
	assert.True(t, profiles[0].Monetary.Equal(decimal.NewFromInt(50)))
}

func TestAggregatePopulationIsUnionSorted(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "zeta", asOf.AddDate(0, 0, -3), 10, ""),
		tx("t2", "alpha", asOf.AddDate(0, 0, -4), 10, ""),
	}
	customers := []domain.Customer{{ID: "mid"}, {ID: "alpha"}}
	params := domain.RunParams{AsOf: asOf, LookbackDays: 730}

	profiles, err := engine.NewAggregator(4).Aggregate(context.Background(), txs, customers, params)
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	assert.Equal(t, "alpha", profiles[0].CustomerID)
	assert.Equal(t, "mid", profiles[1].CustomerID)
	assert.Equal(t, "zeta", profiles[2].CustomerID)
}

func TestAggregateRejectsFutureTransactions(t *testing.T) {
	txs := []domain.Transaction{tx("t1", "c1", asOf.AddDate(0, 0, 1), 10, "")}
	params := domain.RunParams{AsOf: asOf, LookbackDays: 730}

	_, err := engine.NewAggregator(4).Aggregate(context.Background(), txs, nil, params)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAsOfBeforeData)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageAggregate, stageErr.Stage)
	assert.Equal(t, "t1", stageErr.RecordRef)
}

func TestAggregateRejectsNegativeAmount(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", CustomerID: "c1", Timestamp: asOf.AddDate(0, 0, -1), Amount: decimal.NewFromInt(-5)},
	}
	params := domain.RunParams{AsOf: asOf, LookbackDays: 730}

	_, err := engine.NewAggregator(4).Aggregate(context.Background(), txs, nil, params)
	assert.ErrorIs(t, err, domain.ErrNegativeAmount)
}

func TestAggregateRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
	}{
		{"missing customer", domain.Transaction{ID: "t1", Timestamp: asOf, Amount: decimal.NewFromInt(1)}},
		{"missing timestamp", domain.Transaction{ID: "t1", CustomerID: "c1", Amount: decimal.NewFromInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := domain.RunParams{AsOf: asOf, LookbackDays: 730}
			_, err := engine.NewAggregator(4).Aggregate(context.Background(), []domain.Transaction{tt.tx}, nil, params)
			assert.ErrorIs(t, err, domain.ErrMissingField)
		})
	}
}

func TestAggregateDeterministic(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "c1", asOf.AddDate(0, 0, -30), 10, "a"),
		tx("t2", "c2", asOf.AddDate(0, 0, -60), 20, "b"),
		tx("t3", "c3", asOf.AddDate(0, 0, -90), 30, "c"),
		tx("t4", "c1", asOf.AddDate(0, 0, -15), 40, "d"),
	}
	params := domain.RunParams{AsOf: asOf, LookbackDays: 730}

	first, err := engine.NewAggregator(2).Aggregate(context.Background(), txs, nil, params)
	require.NoError(t, err)
	second, err := engine.NewAggregator(8).Aggregate(context.Background(), txs, nil, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
