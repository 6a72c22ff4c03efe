package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// CohortTracker groups customers by the calendar period of their first-ever
// transaction and computes presence-based retention per period offset.
//
// Cohort membership uses the complete transaction history, independent of the
// lookback window applied elsewhere in the run: a customer's origin period
// never changes, and cohort size is fixed at formation.
type CohortTracker struct {
	granularity domain.CohortGranularity
}

// NewCohortTracker creates a cohort tracker for the given period granularity
func NewCohortTracker(granularity domain.CohortGranularity) *CohortTracker {
	if !domain.IsValidGranularity(granularity) {
		granularity = domain.CohortMonthly
	}
	return &CohortTracker{granularity: granularity}
}

// Track builds the retention table. For each cohort and non-negative period
// offset up to the cohort's latest observed activity, it counts the distinct
// customers active in that offset period. Retention is presence-based: a
// customer quiet in offset 2 but active in offset 5 counts at offset 5.
func (t *CohortTracker) Track(txs []domain.Transaction) ([]domain.CohortRetention, error) {
	// First pass: origin period per customer.
	origins := make(map[string]time.Time)
	for i := range txs {
		tx := &txs[i]
		if tx.CustomerID == "" || tx.Timestamp.IsZero() {
			return nil, domain.NewStageError(domain.StageCohort, tx.ID, domain.ErrMissingField)
		}
		p := t.periodStart(tx.Timestamp)
		if origin, ok := origins[tx.CustomerID]; !ok || p.Before(origin) {
			origins[tx.CustomerID] = p
		}
	}

	// Second pass: distinct active customers per (cohort, offset).
	type cohortKey struct {
		origin time.Time
		offset int
	}
	active := make(map[cohortKey]map[string]struct{})
	sizes := make(map[time.Time]int)
	maxOffset := make(map[time.Time]int)

	for _, origin := range origins {
		sizes[origin]++
	}
	for i := range txs {
		tx := &txs[i]
		origin := origins[tx.CustomerID]
		offset := t.periodsBetween(origin, t.periodStart(tx.Timestamp))
		key := cohortKey{origin, offset}
		if active[key] == nil {
			active[key] = make(map[string]struct{})
		}
		active[key][tx.CustomerID] = struct{}{}
		if offset > maxOffset[origin] {
			maxOffset[origin] = offset
		}
	}

	cohorts := make([]time.Time, 0, len(sizes))
	for origin := range sizes {
		cohorts = append(cohorts, origin)
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].Before(cohorts[j]) })

	var rows []domain.CohortRetention
	for _, origin := range cohorts {
		size := sizes[origin]
		for offset := 0; offset <= maxOffset[origin]; offset++ {
			retained := len(active[cohortKey{origin, offset}])
			rows = append(rows, domain.CohortRetention{
				CohortID:      t.CohortID(origin),
				PeriodOffset:  offset,
				CohortSize:    size,
				RetainedCount: retained,
				RetentionRate: float64(retained) / float64(size),
			})
		}
	}
	return rows, nil
}

// CohortID formats a period start as a stable cohort identifier
func (t *CohortTracker) CohortID(periodStart time.Time) string {
	if t.granularity == domain.CohortQuarterly {
		return fmt.Sprintf("%04d-Q%d", periodStart.Year(), (int(periodStart.Month())-1)/3+1)
	}
	return periodStart.Format("2006-01")
}

// periodStart truncates a timestamp to the start of its calendar period
func (t *CohortTracker) periodStart(ts time.Time) time.Time {
	ts = ts.UTC()
	month := ts.Month()
	if t.granularity == domain.CohortQuarterly {
		month = time.Month((int(month)-1)/3*3 + 1)
	}
	return time.Date(ts.Year(), month, 1, 0, 0, 0, 0, time.UTC)
}

// periodsBetween counts whole calendar periods from a to b (both period starts)
func (t *CohortTracker) periodsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if t.granularity == domain.CohortQuarterly {
		return months / 3
	}
	return months
}
