package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

func TestIsValidGranularity(t *testing.T) {
	assert.True(t, domain.IsValidGranularity(domain.CohortMonthly))
	assert.True(t, domain.IsValidGranularity(domain.CohortQuarterly))
	assert.False(t, domain.IsValidGranularity(""))
	assert.False(t, domain.IsValidGranularity("week"))
}

func TestWindowStart(t *testing.T) {
	params := domain.RunParams{
		AsOf:         time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		LookbackDays: 30,
	}

	assert.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), params.WindowStart())
}

func TestRiskMultiplier(t *testing.T) {
	tests := []struct {
		risk     domain.ChurnRisk
		expected float64
	}{
		{domain.ChurnActive, 1.0},
		{domain.ChurnLow, 0.8},
		{domain.ChurnMedium, 0.6},
		{domain.ChurnHigh, 0.3},
	}

	for _, tt := range tests {
		t.Run(string(tt.risk), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.risk.RiskMultiplier())
		})
	}
}

func TestSegmentsOrder(t *testing.T) {
	segments := domain.Segments()

	assert.Len(t, segments, 13)
	assert.Equal(t, domain.SegmentChampions, segments[0])
	assert.Equal(t, domain.SegmentUnclassified, segments[len(segments)-1])

	seen := make(map[domain.Segment]struct{})
	for _, s := range segments {
		_, dup := seen[s]
		assert.False(t, dup, "duplicate segment %s", s)
		seen[s] = struct{}{}
	}
}

func TestStageError(t *testing.T) {
	err := domain.NewStageError(domain.StageIngest, "t42", domain.ErrNegativeAmount)

	assert.Equal(t, "ingest: record t42: negative transaction amount", err.Error())
	assert.ErrorIs(t, err, domain.ErrNegativeAmount)

	var stageErr *domain.StageError
	assert.True(t, errors.As(err, &stageErr))
	assert.Equal(t, domain.StageIngest, stageErr.Stage)
}

func TestStageErrorWithoutRecordRef(t *testing.T) {
	err := domain.NewStageError(domain.StageScore, "", domain.ErrUnclassified)

	assert.Equal(t, "score: no segment rule matched", err.Error())
}
