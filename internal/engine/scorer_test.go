package engine_test

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/engine"
	"github.com/retail-pulse/segmentation-engine/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestRecencyScore(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		expected int
	}{
		{"same day", 0, 5},
		{"upper edge of 5", 30, 5},
		{"just past 5", 31, 4},
		{"upper edge of 4", 60, 4},
		{"just past 4", 61, 3},
		{"upper edge of 3", 90, 3},
		{"just past 3", 91, 2},
		{"upper edge of 2", 180, 2},
		{"just past 2", 181, 1},
		{"sentinel", domain.RecencySentinelDays, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.RecencyScore(tt.days))
		})
	}
}

func profilesWithFrequencies(freqs []int) []domain.RFMProfile {
	profiles := make([]domain.RFMProfile, len(freqs))
	for i, f := range freqs {
		profiles[i] = domain.RFMProfile{
			CustomerID: string(rune('a' + i)),
			Frequency:  f,
			Monetary:   decimal.NewFromInt(int64(f * 100)),
		}
	}
	return profiles
}

func TestComputeBoundariesEqualPopulation(t *testing.T) {
	// 10 distinct values split 2 per quintile
	profiles := profilesWithFrequencies([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	b := engine.ComputeBoundaries(profiles)

	assert.Equal(t, [4]int{2, 4, 6, 8}, b.Frequency)
	for i, want := range []int64{200, 400, 600, 800} {
		assert.True(t, b.Monetary[i].Equal(decimal.NewFromInt(want)), "monetary boundary %d", i)
	}
}

func TestComputeBoundariesEmptySet(t *testing.T) {
	b := engine.ComputeBoundaries(nil)

	assert.Equal(t, [4]int{0, 0, 0, 0}, b.Frequency)
	for i := range b.Monetary {
		assert.True(t, b.Monetary[i].IsZero(), "monetary boundary %d", i)
	}
}

func TestScoreAllQuintileSizes(t *testing.T) {
	profiles := profilesWithFrequencies([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	scores, _, err := engine.NewScorer().ScoreAll(profiles)
	require.NoError(t, err)
	require.Len(t, scores, 10)

	counts := make(map[int]int)
	for _, s := range scores {
		counts[s.Frequency]++
		assert.Equal(t, s.Frequency, s.Monetary, "aligned distributions must score identically")
	}
	for score := 1; score <= 5; score++ {
		assert.Equal(t, 2, counts[score], "score %d", score)
	}
}

func TestScoreAllTiesAssignedToLowerBucket(t *testing.T) {
	// The boundary value itself must land in the lower bucket
	profiles := profilesWithFrequencies([]int{1, 2, 2, 2, 5, 6, 7, 8, 9, 10})

	scores, boundaries, err := engine.NewScorer().ScoreAll(profiles)
	require.NoError(t, err)
	assert.Equal(t, 2, boundaries.Frequency[0])

	// Every frequency equal to the first boundary scores 1
	for i, p := range profiles {
		if p.Frequency == 2 {
			assert.Equal(t, 1, scores[i].Frequency, "customer %s", p.CustomerID)
		}
	}
}

func TestScoreAllDegenerateDistribution(t *testing.T) {
	// All identical values collapse into the lowest bucket instead of erroring
	profiles := profilesWithFrequencies([]int{3, 3, 3, 3, 3, 3})

	scores, _, err := engine.NewScorer().ScoreAll(profiles)
	require.NoError(t, err)
	for i := range scores {
		assert.Equal(t, 1, scores[i].Frequency)
		assert.Equal(t, 1, scores[i].Monetary)
	}
}

func TestScoreAllIdempotent(t *testing.T) {
	profiles := profilesWithFrequencies([]int{4, 1, 9, 2, 7, 7, 3, 12})

	first, firstBoundaries, err := engine.NewScorer().ScoreAll(profiles)
	require.NoError(t, err)
	second, secondBoundaries, err := engine.NewScorer().ScoreAll(profiles)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstBoundaries.Frequency, secondBoundaries.Frequency)
}

func TestScoreAllScoresInRange(t *testing.T) {
	profiles := profilesWithFrequencies([]int{1, 1, 2, 3, 5, 8, 13, 21, 34})

	scores, _, err := engine.NewScorer().ScoreAll(profiles)
	require.NoError(t, err)
	for i, s := range scores {
		assert.GreaterOrEqual(t, s.Frequency, 1, "customer %d", i)
		assert.LessOrEqual(t, s.Frequency, 5, "customer %d", i)
		assert.GreaterOrEqual(t, s.Monetary, 1, "customer %d", i)
		assert.LessOrEqual(t, s.Monetary, 5, "customer %d", i)
	}
}

func TestScoreAllHigherValueNeverScoresLower(t *testing.T) {
	profiles := profilesWithFrequencies([]int{2, 4, 4, 6, 9, 11, 15, 15, 20, 27})

	scores, _, err := engine.NewScorer().ScoreAll(profiles)
	require.NoError(t, err)

	for i := range profiles {
		for j := range profiles {
			if profiles[i].Frequency > profiles[j].Frequency {
				assert.GreaterOrEqual(t, scores[i].Frequency, scores[j].Frequency)
			}
		}
	}
}
