package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// WriteRunCSV writes the three result sets of a run snapshot as CSV files
// under dir: customer_results.csv, segment_summary.csv and
// cohort_retention.csv. Files are suffixed with the run ID so successive
// runs never overwrite each other.
func WriteRunCSV(dir string, result *domain.RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"customer_results", func(w io.Writer) error { return WriteCustomerResults(w, result.Customers) }},
		{"segment_summary", func(w io.Writer) error { return WriteSegmentSummaries(w, result.Segments) }},
		{"cohort_retention", func(w io.Writer) error { return WriteCohortRetention(w, result.Cohorts) }},
	}

	for _, t := range writers {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", t.name, result.RunID))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := t.write(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
	}
	return nil
}

// WriteCustomerResults writes the per-customer joined rows
func WriteCustomerResults(w io.Writer, results []domain.CustomerResult) error {
	cw := csv.NewWriter(w)
	header := []string{
		"customer_id", "recency_days", "frequency", "monetary", "avg_order_value",
		"lifespan_days", "active_periods", "category_diversity", "spend_volatility",
		"recency_score", "frequency_score", "monetary_score",
		"segment", "value_tier", "engagement_level", "churn_risk", "business_priority",
		"historical_value", "predicted_value", "risk_multiplier", "risk_adjusted_value", "ltv_tier",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range results {
		r := &results[i]
		volatility := ""
		if r.Profile.SpendVolatility != nil {
			volatility = formatFloat(*r.Profile.SpendVolatility)
		}
		row := []string{
			r.CustomerID,
			strconv.Itoa(r.Profile.RecencyDays),
			strconv.Itoa(r.Profile.Frequency),
			r.Profile.Monetary.StringFixed(2),
			r.Profile.AvgOrderValue.StringFixed(2),
			strconv.Itoa(r.Profile.LifespanDays),
			strconv.Itoa(r.Profile.ActivePeriods),
			strconv.Itoa(r.Profile.CategoryDiversity),
			volatility,
			strconv.Itoa(r.Score.Recency),
			strconv.Itoa(r.Score.Frequency),
			strconv.Itoa(r.Score.Monetary),
			string(r.Assignment.Segment),
			string(r.Assignment.ValueTier),
			string(r.Assignment.EngagementLevel),
			string(r.Assignment.ChurnRisk),
			string(r.Assignment.BusinessPriority),
			r.Forecast.HistoricalValue.StringFixed(2),
			formatFloat(r.Forecast.PredictedValue),
			formatFloat(r.Forecast.RiskMultiplier),
			formatFloat(r.Forecast.RiskAdjustedValue),
			string(r.Forecast.Tier),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSegmentSummaries writes the per-segment KPI rows
func WriteSegmentSummaries(w io.Writer, summaries []domain.SegmentSummary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"segment", "business_priority", "customer_count", "population_share",
		"total_monetary", "avg_monetary", "avg_recency_score", "avg_frequency_score",
		"avg_monetary_score", "churn_risk_share", "engaged_share",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range summaries {
		s := &summaries[i]
		row := []string{
			string(s.Segment),
			string(s.Priority),
			strconv.Itoa(s.CustomerCount),
			formatFloat(s.PopulationShare),
			s.TotalMonetary.StringFixed(2),
			s.AvgMonetary.StringFixed(2),
			formatFloat(s.AvgRecencyScore),
			formatFloat(s.AvgFrequencyScore),
			formatFloat(s.AvgMonetaryScore),
			formatFloat(s.ChurnRiskShare),
			formatFloat(s.EngagedShare),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCohortRetention writes the cohort retention table
func WriteCohortRetention(w io.Writer, rows []domain.CohortRetention) error {
	cw := csv.NewWriter(w)
	header := []string{"cohort_id", "period_offset", "cohort_size", "retained_count", "retention_rate"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		row := []string{
			r.CohortID,
			strconv.Itoa(r.PeriodOffset),
			strconv.Itoa(r.CohortSize),
			strconv.Itoa(r.RetainedCount),
			formatFloat(r.RetentionRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
