package engine

import (
	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// Fixed absolute thresholds for forecast tiers, applied to the risk-adjusted value
const (
	ltvVeryHighThreshold = 10000.0
	ltvHighThreshold     = 5000.0
	ltvMediumThreshold   = 1000.0
)

// Forecaster projects forward customer value from the observed purchase rate
// and discounts it by churn risk
type Forecaster struct {
	horizonYears float64
}

// NewForecaster creates an LTV forecaster for a projection horizon in years
func NewForecaster(horizonYears float64) *Forecaster {
	if horizonYears <= 0 {
		horizonYears = 1
	}
	return &Forecaster{horizonYears: horizonYears}
}

// Forecast projects the value of one customer. Customers with a positive
// lifespan are extrapolated from their annualized purchase rate; single-
// transaction and zero-lifespan customers route through a degraded fallback
// that never divides by zero.
func (f *Forecaster) Forecast(profile *domain.RFMProfile, risk domain.ChurnRisk) domain.LTVForecast {
	aov := profile.AvgOrderValue.InexactFloat64()

	var predicted float64
	if profile.LifespanDays > 0 {
		annualRate := float64(profile.Frequency) / (float64(profile.LifespanDays) / 365.0)
		predicted = annualRate * aov * f.horizonYears
	} else {
		predicted = aov * float64(profile.Frequency) * 2
	}

	multiplier := risk.RiskMultiplier()
	adjusted := predicted * multiplier

	return domain.LTVForecast{
		CustomerID:        profile.CustomerID,
		HistoricalValue:   profile.Monetary,
		PredictedValue:    predicted,
		RiskMultiplier:    multiplier,
		RiskAdjustedValue: adjusted,
		Tier:              ltvTier(adjusted),
	}
}

// ltvTier buckets a risk-adjusted value into the closed tier enumeration
func ltvTier(value float64) domain.LTVTier {
	switch {
	case value >= ltvVeryHighThreshold:
		return domain.LTVVeryHigh
	case value >= ltvHighThreshold:
		return domain.LTVHigh
	case value >= ltvMediumThreshold:
		return domain.LTVMedium
	default:
		return domain.LTVLow
	}
}
