package engine

import (
	"github.com/shopspring/decimal"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// BuildSegmentSummaries rolls per-customer results into per-segment KPIs.
// Summaries are emitted in canonical segment order; empty segments are
// omitted. Counts always sum to the population and shares to ~1.0.
func BuildSegmentSummaries(results []domain.CustomerResult) []domain.SegmentSummary {
	if len(results) == 0 {
		return nil
	}

	type acc struct {
		count      int
		monetary   decimal.Decimal
		rSum       int
		fSum       int
		mSum       int
		churnRisky int
		engaged    int
	}
	accs := make(map[domain.Segment]*acc)
	for i := range results {
		r := &results[i]
		a := accs[r.Assignment.Segment]
		if a == nil {
			a = &acc{monetary: decimal.Zero}
			accs[r.Assignment.Segment] = a
		}
		a.count++
		a.monetary = a.monetary.Add(r.Profile.Monetary)
		a.rSum += r.Score.Recency
		a.fSum += r.Score.Frequency
		a.mSum += r.Score.Monetary
		if r.Assignment.ChurnRisk == domain.ChurnMedium || r.Assignment.ChurnRisk == domain.ChurnHigh {
			a.churnRisky++
		}
		if r.Assignment.EngagementLevel == domain.EngagementEngaged || r.Assignment.EngagementLevel == domain.EngagementHigh {
			a.engaged++
		}
	}

	total := float64(len(results))
	var summaries []domain.SegmentSummary
	for _, segment := range domain.Segments() {
		a := accs[segment]
		if a == nil {
			continue
		}
		n := float64(a.count)
		summaries = append(summaries, domain.SegmentSummary{
			Segment:           segment,
			Priority:          PriorityFor(segment),
			CustomerCount:     a.count,
			PopulationShare:   n / total,
			TotalMonetary:     a.monetary,
			AvgMonetary:       a.monetary.Div(decimal.NewFromInt(int64(a.count))).Round(2),
			AvgRecencyScore:   float64(a.rSum) / n,
			AvgFrequencyScore: float64(a.fSum) / n,
			AvgMonetaryScore:  float64(a.mSum) / n,
			ChurnRiskShare:    float64(a.churnRisky) / n,
			EngagedShare:      float64(a.engaged) / n,
		})
	}
	return summaries
}
