package schema

// CohortRetention represents the cohort_retentions table - one row per
// (cohort, period offset) of one run snapshot
type CohortRetention struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RunID string `gorm:"column:run_id;not null;index:idx_cohort_retentions_run_cohort,priority:1;type:text"`

	CohortID      string  `gorm:"column:cohort_id;not null;index:idx_cohort_retentions_run_cohort,priority:2;type:text"`
	PeriodOffset  int     `gorm:"column:period_offset;not null"`
	CohortSize    int     `gorm:"column:cohort_size;not null"`
	RetainedCount int     `gorm:"column:retained_count;not null"`
	RetentionRate float64 `gorm:"column:retention_rate;not null"`
}

// TableName specifies the table name for the CohortRetention model
func (CohortRetention) TableName() string {
	return "cohort_retentions"
}
