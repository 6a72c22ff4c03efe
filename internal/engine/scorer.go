package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// Fixed recency thresholds in days. Recency is scored on absolute business
// time rather than the observed distribution: "idle for six months" means the
// same thing regardless of how the rest of the population behaves.
const (
	recencyExcellent = 30
	recencyGood      = 60
	recencyFair      = 90
	recencyPoor      = 180
)

// Scorer maps raw RFM metrics to ordinal 1-5 scores using quantile
// boundaries computed over the entire profile set. It is the pipeline's one
// full-materialization point: boundaries are global statistics, so scoring a
// subset independently would produce scores that are not comparable.
type Scorer struct{}

// NewScorer creates a new quantile scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ScoreAll computes quantile boundaries over the complete profile set and
// maps every profile to its RFMScore. The returned scores are positionally
// aligned with the input profiles. The boundaries used are returned for
// auditability. Scoring the same profile set twice yields identical
// boundaries and scores.
func (s *Scorer) ScoreAll(profiles []domain.RFMProfile) ([]domain.RFMScore, domain.QuantileBoundaries, error) {
	boundaries := ComputeBoundaries(profiles)

	scores := make([]domain.RFMScore, len(profiles))
	for i := range profiles {
		scores[i] = domain.RFMScore{
			Recency:   RecencyScore(profiles[i].RecencyDays),
			Frequency: frequencyScore(profiles[i].Frequency, boundaries.Frequency),
			Monetary:  monetaryScore(profiles[i].Monetary, boundaries.Monetary),
		}
	}
	return scores, boundaries, nil
}

// ComputeBoundaries derives the equal-population quintile cut points for the
// frequency and monetary distributions. With fewer than 5 distinct values the
// buckets widen (some scores go unused) instead of erroring; an empty profile
// set yields zero-valued boundaries.
func ComputeBoundaries(profiles []domain.RFMProfile) domain.QuantileBoundaries {
	var b domain.QuantileBoundaries
	n := len(profiles)
	if n == 0 {
		return b
	}

	freqs := make([]int, n)
	monies := make([]decimal.Decimal, n)
	for i := range profiles {
		freqs[i] = profiles[i].Frequency
		monies[i] = profiles[i].Monetary
	}
	sort.Ints(freqs)
	sort.Slice(monies, func(i, j int) bool { return monies[i].LessThan(monies[j]) })

	for q := 1; q <= 4; q++ {
		idx := quantileIndex(q, n)
		b.Frequency[q-1] = freqs[idx]
		b.Monetary[q-1] = monies[idx]
	}
	return b
}

// quantileIndex returns the index of the upper boundary value of quintile q
// in a sorted slice of length n
func quantileIndex(q, n int) int {
	// ceil(q*n/5) - 1
	return (q*n+4)/5 - 1
}

// RecencyScore maps recency in days to a 1-5 score using the fixed,
// monotonically decreasing day thresholds (fewer days = higher score)
func RecencyScore(days int) int {
	switch {
	case days <= recencyExcellent:
		return 5
	case days <= recencyGood:
		return 4
	case days <= recencyFair:
		return 3
	case days <= recencyPoor:
		return 2
	default:
		return 1
	}
}

// frequencyScore assigns the bucket whose boundaries bracket the value.
// A value tying a boundary goes to the lower-scoring bucket.
func frequencyScore(v int, boundaries [4]int) int {
	score := 1
	for _, b := range boundaries {
		if v > b {
			score++
		}
	}
	return score
}

// monetaryScore mirrors frequencyScore over decimal amounts
func monetaryScore(v decimal.Decimal, boundaries [4]decimal.Decimal) int {
	score := 1
	for _, b := range boundaries {
		if v.GreaterThan(b) {
			score++
		}
	}
	return score
}
