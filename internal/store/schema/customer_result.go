package schema

import (
	"github.com/shopspring/decimal"
)

// CustomerResult represents the customer_results table - the per-customer
// joined row of one run snapshot (profile, scores, labels and forecast)
type CustomerResult struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string `gorm:"column:run_id;not null;index:idx_customer_results_run_customer,priority:1;type:text"`
	CustomerID string `gorm:"column:customer_id;not null;index:idx_customer_results_run_customer,priority:2;type:text"`

	// Profile metrics
	RecencyDays       int             `gorm:"column:recency_days;not null"`
	Frequency         int             `gorm:"column:frequency;not null"`
	Monetary          decimal.Decimal `gorm:"column:monetary;not null;type:numeric(18,2)"`
	AvgOrderValue     decimal.Decimal `gorm:"column:avg_order_value;not null;type:numeric(18,2)"`
	LifespanDays      int             `gorm:"column:lifespan_days;not null"`
	ActivePeriods     int             `gorm:"column:active_periods;not null"`
	CategoryDiversity int             `gorm:"column:category_diversity;not null"`
	// SpendVolatility is null when the customer had fewer than 2 transactions
	SpendVolatility *float64 `gorm:"column:spend_volatility"`

	// Scores
	RecencyScore   int `gorm:"column:recency_score;not null"`
	FrequencyScore int `gorm:"column:frequency_score;not null"`
	MonetaryScore  int `gorm:"column:monetary_score;not null"`

	// Labels
	Segment          string `gorm:"column:segment;not null;type:text;index"`
	ValueTier        string `gorm:"column:value_tier;not null;type:text"`
	EngagementLevel  string `gorm:"column:engagement_level;not null;type:text"`
	ChurnRisk        string `gorm:"column:churn_risk;not null;type:text"`
	BusinessPriority string `gorm:"column:business_priority;not null;type:text"`

	// Forecast
	HistoricalValue   decimal.Decimal `gorm:"column:historical_value;not null;type:numeric(18,2)"`
	PredictedValue    float64         `gorm:"column:predicted_value;not null"`
	RiskMultiplier    float64         `gorm:"column:risk_multiplier;not null"`
	RiskAdjustedValue float64         `gorm:"column:risk_adjusted_value;not null"`
	LTVTier           string          `gorm:"column:ltv_tier;not null;type:text"`
}

// TableName specifies the table name for the CustomerResult model
func (CustomerResult) TableName() string {
	return "customer_results"
}
