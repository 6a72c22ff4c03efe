package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/engine"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func TestTrackMonthlyRetention(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "c1", day(2024, time.January, 5), 10, ""),
		tx("t2", "c2", day(2024, time.January, 20), 10, ""),
		tx("t3", "c1", day(2024, time.February, 3), 10, ""),
	}

	rows, err := engine.NewCohortTracker(domain.CohortMonthly).Track(txs)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.CohortRetention{
		CohortID:      "2024-01",
		PeriodOffset:  0,
		CohortSize:    2,
		RetainedCount: 2,
		RetentionRate: 1.0,
	}, rows[0])
	assert.Equal(t, domain.CohortRetention{
		CohortID:      "2024-01",
		PeriodOffset:  1,
		CohortSize:    2,
		RetainedCount: 1,
		RetentionRate: 0.5,
	}, rows[1])
}

func TestTrackOffsetsAreContiguous(t *testing.T) {
	// Active in the origin month and again three months later: the quiet
	// months in between still get rows
	txs := []domain.Transaction{
		tx("t1", "c1", day(2024, time.January, 5), 10, ""),
		tx("t2", "c1", day(2024, time.April, 5), 10, ""),
	}

	rows, err := engine.NewCohortTracker(domain.CohortMonthly).Track(txs)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	for offset, row := range rows {
		assert.Equal(t, "2024-01", row.CohortID)
		assert.Equal(t, offset, row.PeriodOffset)
	}
	assert.Equal(t, 1, rows[0].RetainedCount)
	assert.Equal(t, 0, rows[1].RetainedCount)
	assert.Equal(t, 0, rows[2].RetainedCount)
	assert.Equal(t, 1, rows[3].RetainedCount)
}

func TestTrackOriginIsFirstEverTransaction(t *testing.T) {
	// Out-of-order input must not move the origin
	txs := []domain.Transaction{
		tx("t2", "c1", day(2024, time.March, 1), 10, ""),
		tx("t1", "c1", day(2024, time.January, 1), 10, ""),
	}

	rows, err := engine.NewCohortTracker(domain.CohortMonthly).Track(txs)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "2024-01", rows[0].CohortID)
}

func TestTrackQuarterlyGranularity(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "c1", day(2024, time.February, 10), 10, ""),
		tx("t2", "c1", day(2024, time.July, 10), 10, ""),
		tx("t3", "c2", day(2024, time.December, 1), 10, ""),
	}

	rows, err := engine.NewCohortTracker(domain.CohortQuarterly).Track(txs)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// c1: Q1 origin, active in Q1 and Q3
	assert.Equal(t, "2024-Q1", rows[0].CohortID)
	assert.Equal(t, 0, rows[0].PeriodOffset)
	assert.Equal(t, 1, rows[0].RetainedCount)
	assert.Equal(t, 1, rows[1].PeriodOffset)
	assert.Equal(t, 0, rows[1].RetainedCount)
	assert.Equal(t, 2, rows[2].PeriodOffset)
	assert.Equal(t, 1, rows[2].RetainedCount)

	// c2: Q4 origin
	assert.Equal(t, "2024-Q4", rows[3].CohortID)
	assert.Equal(t, 0, rows[3].PeriodOffset)
}

func TestTrackOffsetZeroAlwaysFullRetention(t *testing.T) {
	txs := []domain.Transaction{
		tx("t1", "c1", day(2023, time.May, 1), 10, ""),
		tx("t2", "c2", day(2023, time.May, 15), 10, ""),
		tx("t3", "c3", day(2023, time.August, 2), 10, ""),
		tx("t4", "c2", day(2023, time.November, 9), 10, ""),
	}

	rows, err := engine.NewCohortTracker(domain.CohortMonthly).Track(txs)
	require.NoError(t, err)

	for _, row := range rows {
		assert.GreaterOrEqual(t, row.RetentionRate, 0.0)
		assert.LessOrEqual(t, row.RetentionRate, 1.0)
		if row.PeriodOffset == 0 {
			assert.Equal(t, 1.0, row.RetentionRate, "cohort %s", row.CohortID)
		}
	}
}

func TestTrackRejectsMissingFields(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "t1", Timestamp: day(2024, time.January, 1)},
	}

	_, err := engine.NewCohortTracker(domain.CohortMonthly).Track(txs)
	assert.ErrorIs(t, err, domain.ErrMissingField)
}

func TestTrackEmptyInput(t *testing.T) {
	rows, err := engine.NewCohortTracker(domain.CohortMonthly).Track(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCohortIDFormats(t *testing.T) {
	monthly := engine.NewCohortTracker(domain.CohortMonthly)
	quarterly := engine.NewCohortTracker(domain.CohortQuarterly)

	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	oct := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-01", monthly.CohortID(jan))
	assert.Equal(t, "2024-10", monthly.CohortID(oct))
	assert.Equal(t, "2024-Q1", quarterly.CohortID(jan))
	assert.Equal(t, "2024-Q4", quarterly.CohortID(oct))
}
