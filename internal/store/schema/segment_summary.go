package schema

import (
	"github.com/shopspring/decimal"
)

// SegmentSummary represents the segment_summaries table - per-segment KPI
// rollups for one run snapshot
type SegmentSummary struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RunID string `gorm:"column:run_id;not null;index;type:text"`

	Segment           string          `gorm:"column:segment;not null;type:text"`
	BusinessPriority  string          `gorm:"column:business_priority;not null;type:text"`
	CustomerCount     int             `gorm:"column:customer_count;not null"`
	PopulationShare   float64         `gorm:"column:population_share;not null"`
	TotalMonetary     decimal.Decimal `gorm:"column:total_monetary;not null;type:numeric(18,2)"`
	AvgMonetary       decimal.Decimal `gorm:"column:avg_monetary;not null;type:numeric(18,2)"`
	AvgRecencyScore   float64         `gorm:"column:avg_recency_score;not null"`
	AvgFrequencyScore float64         `gorm:"column:avg_frequency_score;not null"`
	AvgMonetaryScore  float64         `gorm:"column:avg_monetary_score;not null"`
	ChurnRiskShare    float64         `gorm:"column:churn_risk_share;not null"`
	EngagedShare      float64         `gorm:"column:engaged_share;not null"`
}

// TableName specifies the table name for the SegmentSummary model
func (SegmentSummary) TableName() string {
	return "segment_summaries"
}
