package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecencySentinelDays is assigned to customers with no qualifying transaction
// in the analysis window. It is large enough to always land in the lowest
// recency score bucket.
const RecencySentinelDays = 999

// DefaultLookbackDays is the default analysis window (2 years).
const DefaultLookbackDays = 730

// Transaction represents a single immutable purchase record.
// Amounts are non-negative; validation happens at ingestion.
type Transaction struct {
	ID              string          `json:"transaction_id"`
	CustomerID      string          `json:"customer_id"`
	Timestamp       time.Time       `json:"timestamp"`
	Amount          decimal.Decimal `json:"amount"`
	ProductCategory string          `json:"product_category"`
}

// Customer represents the customer reference dimension
type Customer struct {
	ID               string    `json:"customer_id"`
	Name             string    `json:"name"`
	RegistrationDate time.Time `json:"registration_date"`
	Location         string    `json:"location"`
}

// CohortGranularity determines the calendar period used to group cohorts
type CohortGranularity string

const (
	CohortMonthly   CohortGranularity = "month"
	CohortQuarterly CohortGranularity = "quarter"
)

// IsValidGranularity checks if a cohort granularity is supported
func IsValidGranularity(g CohortGranularity) bool {
	return g == CohortMonthly || g == CohortQuarterly
}

// RunParams holds the immutable configuration for a single analysis run.
// It is passed explicitly through every pipeline stage; there is no ambient
// run state.
type RunParams struct {
	// AsOf is the reference date for recency and window filtering
	AsOf time.Time `json:"as_of"`
	// LookbackDays bounds the transaction window ending at AsOf
	LookbackDays int `json:"lookback_days"`
	// Granularity is the calendar period used for cohort grouping
	Granularity CohortGranularity `json:"granularity"`
	// HorizonYears is the projection horizon for LTV forecasts
	HorizonYears float64 `json:"horizon_years"`
}

// WindowStart returns the inclusive lower bound of the analysis window
func (p RunParams) WindowStart() time.Time {
	return p.AsOf.AddDate(0, 0, -p.LookbackDays)
}

// RFMProfile holds the per-customer metrics derived from the transaction
// window. One profile per customer per run; snapshots are never mutated.
type RFMProfile struct {
	CustomerID    string          `json:"customer_id"`
	RecencyDays   int             `json:"recency_days"`
	Frequency     int             `json:"frequency_count"`
	Monetary      decimal.Decimal `json:"monetary_total"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	LifespanDays  int             `json:"lifespan_days"`
	// ActivePeriods is the count of distinct calendar months with at least one transaction
	ActivePeriods int `json:"active_periods"`
	// CategoryDiversity is the count of distinct product categories purchased
	CategoryDiversity int `json:"category_diversity"`
	// SpendVolatility is the standard deviation of transaction amounts.
	// It is nil when the customer has fewer than 2 transactions; downstream
	// consumers must treat nil as unknown, never as zero.
	SpendVolatility *float64 `json:"spend_volatility,omitempty"`
	// FirstPurchase and LastPurchase are nil for customers with no
	// transactions in the window
	FirstPurchase *time.Time `json:"first_purchase,omitempty"`
	LastPurchase  *time.Time `json:"last_purchase,omitempty"`
}

// HasTransactions reports whether the customer had any qualifying
// transaction in the analysis window
func (p *RFMProfile) HasTransactions() bool {
	return p.Frequency > 0
}

// QuantileBoundaries holds the equal-population cut points computed over the
// full profile set for one run. Four ordered boundaries define five buckets.
// Recency scoring uses fixed day thresholds instead: recency has
// business-meaningful absolute units, while frequency and monetary are
// bucketed relative to the observed population.
type QuantileBoundaries struct {
	Frequency [4]int             `json:"frequency"`
	Monetary  [4]decimal.Decimal `json:"monetary"`
}

// RFMScore holds the ordinal 1-5 scores for one customer
type RFMScore struct {
	Recency   int `json:"recency_score"`
	Frequency int `json:"frequency_score"`
	Monetary  int `json:"monetary_score"`
}

// Segment is the closed enumeration of behavioral segments. Every customer
// is assigned exactly one segment per run.
type Segment string

const (
	SegmentChampions          Segment = "Champions"
	SegmentLoyalCustomers     Segment = "Loyal Customers"
	SegmentBigSpenders        Segment = "Big Spenders"
	SegmentPotentialLoyalists Segment = "Potential Loyalists"
	SegmentNewCustomers       Segment = "New Customers"
	SegmentPromising          Segment = "Promising"
	SegmentNeedAttention      Segment = "Need Attention"
	SegmentAboutToSleep       Segment = "About to Sleep"
	SegmentCannotLoseThem     Segment = "Cannot Lose Them"
	SegmentAtRisk             Segment = "At Risk"
	SegmentHibernating        Segment = "Hibernating"
	SegmentLostCustomers      Segment = "Lost Customers"
	SegmentUnclassified       Segment = "Unclassified"
)

// Segments lists every segment in rule-priority order, catch-all last
func Segments() []Segment {
	return []Segment{
		SegmentChampions,
		SegmentLoyalCustomers,
		SegmentBigSpenders,
		SegmentPotentialLoyalists,
		SegmentNewCustomers,
		SegmentPromising,
		SegmentNeedAttention,
		SegmentAboutToSleep,
		SegmentCannotLoseThem,
		SegmentAtRisk,
		SegmentHibernating,
		SegmentLostCustomers,
		SegmentUnclassified,
	}
}

// ValueTier is the population-relative monetary tier
type ValueTier string

const (
	TierPlatinum ValueTier = "Platinum"
	TierGold     ValueTier = "Gold"
	TierSilver   ValueTier = "Silver"
	TierBronze   ValueTier = "Bronze"
)

// EngagementLevel describes how actively a customer interacts, derived from
// joint recency/frequency score thresholds
type EngagementLevel string

const (
	EngagementHigh       EngagementLevel = "Highly Engaged"
	EngagementEngaged    EngagementLevel = "Engaged"
	EngagementModerate   EngagementLevel = "Moderately Engaged"
	EngagementDisengaged EngagementLevel = "Disengaged"
)

// ChurnRisk classifies the likelihood the customer has lapsed
type ChurnRisk string

const (
	ChurnActive ChurnRisk = "Active"
	ChurnLow    ChurnRisk = "Low"
	ChurnMedium ChurnRisk = "Medium"
	ChurnHigh   ChurnRisk = "High"
)

// RiskMultiplier returns the scalar discount applied to LTV projections for
// this churn-risk class
func (r ChurnRisk) RiskMultiplier() float64 {
	switch r {
	case ChurnActive:
		return 1.0
	case ChurnLow:
		return 0.8
	case ChurnMedium:
		return 0.6
	default:
		return 0.3
	}
}

// BusinessPriority ranks segments by the urgency of marketing intervention
type BusinessPriority string

const (
	PriorityCritical BusinessPriority = "Critical"
	PriorityHigh     BusinessPriority = "High"
	PriorityMedium   BusinessPriority = "Medium"
	PriorityLow      BusinessPriority = "Low"
)

// SegmentAssignment attaches the full set of classification labels to one
// customer for one run
type SegmentAssignment struct {
	CustomerID       string           `json:"customer_id"`
	Segment          Segment          `json:"segment"`
	ValueTier        ValueTier        `json:"value_tier"`
	EngagementLevel  EngagementLevel  `json:"engagement_level"`
	ChurnRisk        ChurnRisk        `json:"churn_risk"`
	BusinessPriority BusinessPriority `json:"business_priority"`
}

// LTVTier is the closed enumeration of forecast value tiers
type LTVTier string

const (
	LTVVeryHigh LTVTier = "Very High"
	LTVHigh     LTVTier = "High"
	LTVMedium   LTVTier = "Medium"
	LTVLow      LTVTier = "Low"
)

// LTVForecast holds the risk-adjusted lifetime-value projection for one customer
type LTVForecast struct {
	CustomerID        string          `json:"customer_id"`
	HistoricalValue   decimal.Decimal `json:"historical_value"`
	PredictedValue    float64         `json:"predicted_value"`
	RiskMultiplier    float64         `json:"risk_multiplier"`
	RiskAdjustedValue float64         `json:"risk_adjusted_value"`
	Tier              LTVTier         `json:"tier"`
}

// CustomerResult is the per-customer row of a run snapshot, joining every
// derived entity by customer ID
type CustomerResult struct {
	CustomerID string            `json:"customer_id"`
	Profile    RFMProfile        `json:"profile"`
	Score      RFMScore          `json:"score"`
	Assignment SegmentAssignment `json:"assignment"`
	Forecast   LTVForecast       `json:"forecast"`
}

// SegmentSummary aggregates per-segment KPIs for reporting
type SegmentSummary struct {
	Segment           Segment          `json:"segment"`
	Priority          BusinessPriority `json:"business_priority"`
	CustomerCount     int              `json:"customer_count"`
	PopulationShare   float64          `json:"population_share"`
	TotalMonetary     decimal.Decimal  `json:"total_monetary"`
	AvgMonetary       decimal.Decimal  `json:"avg_monetary"`
	AvgRecencyScore   float64          `json:"avg_recency_score"`
	AvgFrequencyScore float64          `json:"avg_frequency_score"`
	AvgMonetaryScore  float64          `json:"avg_monetary_score"`
	// ChurnRiskShare is the fraction of members classified Medium or High churn risk
	ChurnRiskShare float64 `json:"churn_risk_share"`
	// EngagedShare is the fraction of members classified Engaged or Highly Engaged
	EngagedShare float64 `json:"engaged_share"`
}

// CohortRetention is one row of the per-cohort retention table
type CohortRetention struct {
	CohortID      string  `json:"cohort_id"`
	PeriodOffset  int     `json:"period_offset"`
	CohortSize    int     `json:"cohort_size"`
	RetainedCount int     `json:"retained_count"`
	RetentionRate float64 `json:"retention_rate"`
}

// RunResult is the complete immutable snapshot produced by one analysis run
type RunResult struct {
	RunID       string             `json:"run_id"`
	Params      RunParams          `json:"params"`
	GeneratedAt time.Time          `json:"generated_at"`
	Boundaries  QuantileBoundaries `json:"boundaries"`
	Customers   []CustomerResult   `json:"customers"`
	Segments    []SegmentSummary   `json:"segments"`
	Cohorts     []CohortRetention  `json:"cohorts"`
}

// Recommendation describes the marketing strategy attached to a segment
type Recommendation struct {
	Segment     Segment  `json:"segment"`
	Description string   `json:"description"`
	Strategy    string   `json:"strategy"`
	Actions     []string `json:"actions"`
}
