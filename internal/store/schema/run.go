package schema

import (
	"time"
)

// Run represents the analysis_runs table - one row per completed analysis
// run snapshot. Child rows reference the run by its ULID; a run and its
// children are written in a single transaction so consumers never observe a
// partial snapshot.
type Run struct {
	// ID is the ULID assigned by the engine at run start
	ID string `gorm:"column:id;primaryKey;type:text"`
	// AsOf is the reference date the run was computed against
	AsOf time.Time `gorm:"column:as_of;not null"`
	// LookbackDays is the transaction window length used
	LookbackDays int `gorm:"column:lookback_days;not null"`
	// Granularity is the cohort period granularity ("month" or "quarter")
	Granularity string `gorm:"column:granularity;not null;type:text"`
	// HorizonYears is the LTV projection horizon
	HorizonYears float64 `gorm:"column:horizon_years;not null"`
	// CustomerCount is the population size of the run
	CustomerCount int `gorm:"column:customer_count;not null"`
	// FrequencyBoundaries and MonetaryBoundaries record the quantile cut
	// points used, serialized as JSON for auditability
	FrequencyBoundaries string `gorm:"column:frequency_boundaries;type:text"`
	MonetaryBoundaries  string `gorm:"column:monetary_boundaries;type:text"`
	// GeneratedAt is when the engine produced the snapshot
	GeneratedAt time.Time `gorm:"column:generated_at;not null"`
	// CreatedAt is when this record was persisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`

	// Associations
	CustomerResults  []CustomerResult  `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	SegmentSummaries []SegmentSummary  `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	CohortRetentions []CohortRetention `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Run model
func (Run) TableName() string {
	return "analysis_runs"
}
