package ingest_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-pulse/segmentation-engine/internal/adapter"
	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/ingest"
	"github.com/retail-pulse/segmentation-engine/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

var now = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func newLoader() *ingest.Loader {
	return ingest.NewLoader(&adapter.FixedClock{Time: now})
}

func TestReadTransactions(t *testing.T) {
	input := `transaction_id,customer_id,timestamp,amount,product_category
t1,c1,2024-01-15T10:30:00Z,49.99,books
t2,c2,2024-02-01 08:00:00,120.50,electronics
t3,c1,2024-03-10,15,
`

	txs, err := newLoader().ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "c1", txs[0].CustomerID)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), txs[0].Timestamp)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("49.99")))
	assert.Equal(t, "books", txs[0].ProductCategory)

	assert.Equal(t, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC), txs[1].Timestamp)
	assert.Equal(t, "", txs[2].ProductCategory)
}

func TestReadTransactionsReorderedColumns(t *testing.T) {
	input := `amount,transaction_id,product_category,customer_id,timestamp
10.00,t1,toys,c1,2024-01-01
`

	txs, err := newLoader().ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "c1", txs[0].CustomerID)
	assert.Equal(t, "toys", txs[0].ProductCategory)
}

func TestReadTransactionsWithoutCategoryColumn(t *testing.T) {
	input := `transaction_id,customer_id,timestamp,amount
t1,c1,2024-01-01,10
`

	txs, err := newLoader().ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "", txs[0].ProductCategory)
}

func TestReadTransactionsCollapsesDuplicates(t *testing.T) {
	// Same customer, timestamp and amount: only the first row survives
	input := `transaction_id,customer_id,timestamp,amount
t1,c1,2024-01-01T10:00:00Z,10.00
t2,c1,2024-01-01T10:00:00Z,10.00
t3,c1,2024-01-01T10:00:00Z,20.00
`

	txs, err := newLoader().ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "t3", txs[1].ID)
}

func TestReadTransactionsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ref   string
	}{
		{
			"missing required column",
			"transaction_id,customer_id,amount\nt1,c1,10\n",
			"",
		},
		{
			"missing customer id",
			"transaction_id,customer_id,timestamp,amount\nt1,,2024-01-01,10\n",
			"t1",
		},
		{
			"bad timestamp",
			"transaction_id,customer_id,timestamp,amount\nt1,c1,yesterday,10\n",
			"t1",
		},
		{
			"future timestamp",
			"transaction_id,customer_id,timestamp,amount\nt1,c1,2030-01-01,10\n",
			"t1",
		},
		{
			"bad amount",
			"transaction_id,customer_id,timestamp,amount\nt1,c1,2024-01-01,lots\n",
			"t1",
		},
		{
			"negative amount",
			"transaction_id,customer_id,timestamp,amount\nt1,c1,2024-01-01,-5\n",
			"t1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newLoader().ReadTransactions(strings.NewReader(tt.input))
			require.Error(t, err)

			var stageErr *domain.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, domain.StageIngest, stageErr.Stage)
			assert.Equal(t, tt.ref, stageErr.RecordRef)
		})
	}
}

func TestReadCustomers(t *testing.T) {
	input := `customer_id,name,registration_date,location
c1,Alice,2023-05-01,Berlin
c2,Bob,,London
`

	customers, err := newLoader().ReadCustomers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, customers, 2)

	assert.Equal(t, "c1", customers[0].ID)
	assert.Equal(t, "Alice", customers[0].Name)
	assert.Equal(t, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), customers[0].RegistrationDate)
	assert.Equal(t, "Berlin", customers[0].Location)

	assert.True(t, customers[1].RegistrationDate.IsZero())
}

func TestReadCustomersMinimalHeader(t *testing.T) {
	input := "customer_id\nc1\nc2\n"

	customers, err := newLoader().ReadCustomers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "c1", customers[0].ID)
}

func TestReadCustomersMissingID(t *testing.T) {
	input := "customer_id,name\n,Alice\n"

	_, err := newLoader().ReadCustomers(strings.NewReader(input))
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestLoadTransactionsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/transactions.csv"
	content := "transaction_id,customer_id,timestamp,amount\nt1,c1,2024-01-01,10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	txs, err := newLoader().LoadTransactions(path)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	_, err = newLoader().LoadTransactions(dir + "/missing.csv")
	assert.Error(t, err)
}
