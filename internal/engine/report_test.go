package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/engine"
)

func result(id string, segment domain.Segment, monetary int64, score domain.RFMScore, churn domain.ChurnRisk, eng domain.EngagementLevel) domain.CustomerResult {
	return domain.CustomerResult{
		CustomerID: id,
		Profile:    domain.RFMProfile{CustomerID: id, Monetary: decimal.NewFromInt(monetary)},
		Score:      score,
		Assignment: domain.SegmentAssignment{
			CustomerID:      id,
			Segment:         segment,
			ChurnRisk:       churn,
			EngagementLevel: eng,
		},
	}
}

func TestBuildSegmentSummaries(t *testing.T) {
	results := []domain.CustomerResult{
		result("c1", domain.SegmentChampions, 1000, domain.RFMScore{Recency: 5, Frequency: 5, Monetary: 5}, domain.ChurnActive, domain.EngagementHigh),
		result("c2", domain.SegmentChampions, 500, domain.RFMScore{Recency: 4, Frequency: 4, Monetary: 4}, domain.ChurnActive, domain.EngagementHigh),
		result("c3", domain.SegmentLostCustomers, 100, domain.RFMScore{Recency: 1, Frequency: 1, Monetary: 1}, domain.ChurnHigh, domain.EngagementDisengaged),
		result("c4", domain.SegmentLostCustomers, 200, domain.RFMScore{Recency: 1, Frequency: 2, Monetary: 2}, domain.ChurnMedium, domain.EngagementModerate),
	}

	summaries := engine.BuildSegmentSummaries(results)
	require.Len(t, summaries, 2)

	champions := summaries[0]
	assert.Equal(t, domain.SegmentChampions, champions.Segment)
	assert.Equal(t, domain.PriorityCritical, champions.Priority)
	assert.Equal(t, 2, champions.CustomerCount)
	assert.InDelta(t, 0.5, champions.PopulationShare, 1e-9)
	assert.True(t, champions.TotalMonetary.Equal(decimal.NewFromInt(1500)))
	assert.True(t, champions.AvgMonetary.Equal(decimal.NewFromInt(750)))
	assert.InDelta(t, 4.5, champions.AvgRecencyScore, 1e-9)
	assert.InDelta(t, 4.5, champions.AvgFrequencyScore, 1e-9)
	assert.InDelta(t, 4.5, champions.AvgMonetaryScore, 1e-9)
	assert.InDelta(t, 0.0, champions.ChurnRiskShare, 1e-9)
	assert.InDelta(t, 1.0, champions.EngagedShare, 1e-9)

	lost := summaries[1]
	assert.Equal(t, domain.SegmentLostCustomers, lost.Segment)
	assert.Equal(t, 2, lost.CustomerCount)
	assert.InDelta(t, 1.0, lost.ChurnRiskShare, 1e-9, "medium and high churn both count")
	assert.InDelta(t, 0.0, lost.EngagedShare, 1e-9)
}

func TestBuildSegmentSummariesCountsSumToPopulation(t *testing.T) {
	results := []domain.CustomerResult{
		result("c1", domain.SegmentChampions, 100, domain.RFMScore{}, domain.ChurnActive, domain.EngagementHigh),
		result("c2", domain.SegmentPromising, 100, domain.RFMScore{}, domain.ChurnLow, domain.EngagementModerate),
		result("c3", domain.SegmentPromising, 100, domain.RFMScore{}, domain.ChurnLow, domain.EngagementModerate),
		result("c4", domain.SegmentHibernating, 100, domain.RFMScore{}, domain.ChurnHigh, domain.EngagementDisengaged),
		result("c5", domain.SegmentUnclassified, 100, domain.RFMScore{}, domain.ChurnHigh, domain.EngagementDisengaged),
	}

	summaries := engine.BuildSegmentSummaries(results)

	totalCount := 0
	totalShare := 0.0
	for _, s := range summaries {
		totalCount += s.CustomerCount
		totalShare += s.PopulationShare
	}
	assert.Equal(t, len(results), totalCount)
	assert.InDelta(t, 1.0, totalShare, 1e-9)
}

func TestBuildSegmentSummariesCanonicalOrder(t *testing.T) {
	// Input order must not leak into output order
	results := []domain.CustomerResult{
		result("c1", domain.SegmentLostCustomers, 100, domain.RFMScore{}, domain.ChurnHigh, domain.EngagementDisengaged),
		result("c2", domain.SegmentChampions, 100, domain.RFMScore{}, domain.ChurnActive, domain.EngagementHigh),
		result("c3", domain.SegmentAtRisk, 100, domain.RFMScore{}, domain.ChurnMedium, domain.EngagementModerate),
	}

	summaries := engine.BuildSegmentSummaries(results)
	require.Len(t, summaries, 3)

	assert.Equal(t, domain.SegmentChampions, summaries[0].Segment)
	assert.Equal(t, domain.SegmentAtRisk, summaries[1].Segment)
	assert.Equal(t, domain.SegmentLostCustomers, summaries[2].Segment)
}

func TestBuildSegmentSummariesEmptyInput(t *testing.T) {
	assert.Nil(t, engine.BuildSegmentSummaries(nil))
}

func TestRecommendationsCoverEverySegment(t *testing.T) {
	for _, segment := range domain.Segments() {
		rec, ok := engine.RecommendationFor(segment)
		require.True(t, ok, "segment %s", segment)
		assert.Equal(t, segment, rec.Segment)
		assert.NotEmpty(t, rec.Strategy)
		assert.NotEmpty(t, rec.Actions)
	}

	_, ok := engine.RecommendationFor(domain.Segment("Nonexistent"))
	assert.False(t, ok)
}
