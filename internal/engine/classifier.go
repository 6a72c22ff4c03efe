package engine

import (
	"sort"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// Absolute churn-risk day thresholds. These deliberately reuse the recency
// scale's business anchors rather than population quantiles.
const (
	churnActiveDays = 30
	churnLowDays    = 90
	churnMediumDays = 180
)

// segmentRule is one (predicate, outcome) pair of the decision list
type segmentRule struct {
	segment domain.Segment
	matches func(s domain.RFMScore, lifespanDays int) bool
}

// segmentRules is the canonical first-match-wins decision list. Order is
// priority by business value, not mutual exclusivity: earlier rules shadow
// later ones on overlapping predicates, and the final catch-all always
// matches. Do not reorder.
var segmentRules = []segmentRule{
	{domain.SegmentChampions, func(s domain.RFMScore, _ int) bool {
		return s.Recency >= 4 && s.Frequency >= 4 && s.Monetary >= 4
	}},
	{domain.SegmentLoyalCustomers, func(s domain.RFMScore, _ int) bool {
		return s.Frequency >= 4 && s.Monetary >= 4
	}},
	{domain.SegmentBigSpenders, func(s domain.RFMScore, _ int) bool {
		return s.Monetary >= 4 && s.Frequency >= 2
	}},
	{domain.SegmentPotentialLoyalists, func(s domain.RFMScore, _ int) bool {
		return s.Recency >= 4 && s.Frequency >= 3
	}},
	{domain.SegmentNewCustomers, func(s domain.RFMScore, lifespan int) bool {
		return s.Recency >= 4 && s.Frequency <= 2 && lifespan <= 90
	}},
	{domain.SegmentPromising, func(s domain.RFMScore, _ int) bool {
		return s.Recency >= 3 && s.Frequency >= 2 && s.Monetary >= 2
	}},
	{domain.SegmentNeedAttention, func(s domain.RFMScore, _ int) bool {
		return s.Recency >= 3 && s.Frequency >= 3
	}},
	{domain.SegmentAboutToSleep, func(s domain.RFMScore, _ int) bool {
		return s.Recency == 2 && s.Frequency >= 2 && s.Monetary >= 2
	}},
	{domain.SegmentCannotLoseThem, func(s domain.RFMScore, _ int) bool {
		return s.Monetary >= 4 && s.Recency == 1
	}},
	{domain.SegmentAtRisk, func(s domain.RFMScore, _ int) bool {
		return s.Monetary >= 3 && s.Recency <= 2 && s.Frequency <= 2
	}},
	{domain.SegmentHibernating, func(s domain.RFMScore, lifespan int) bool {
		return s.Recency <= 2 && s.Frequency >= 2 && lifespan > 180
	}},
	{domain.SegmentLostCustomers, func(s domain.RFMScore, _ int) bool {
		return s.Recency == 1 && s.Frequency <= 2
	}},
	{domain.SegmentUnclassified, func(domain.RFMScore, int) bool {
		return true
	}},
}

// segmentPriorities maps each segment to its marketing intervention priority
var segmentPriorities = map[domain.Segment]domain.BusinessPriority{
	domain.SegmentChampions:          domain.PriorityCritical,
	domain.SegmentCannotLoseThem:     domain.PriorityCritical,
	domain.SegmentLoyalCustomers:     domain.PriorityHigh,
	domain.SegmentBigSpenders:        domain.PriorityHigh,
	domain.SegmentAtRisk:             domain.PriorityHigh,
	domain.SegmentPotentialLoyalists: domain.PriorityMedium,
	domain.SegmentPromising:          domain.PriorityMedium,
	domain.SegmentNeedAttention:      domain.PriorityMedium,
	domain.SegmentAboutToSleep:       domain.PriorityMedium,
	domain.SegmentNewCustomers:       domain.PriorityLow,
	domain.SegmentHibernating:        domain.PriorityLow,
	domain.SegmentLostCustomers:      domain.PriorityLow,
	domain.SegmentUnclassified:       domain.PriorityLow,
}

// Classifier assigns each customer a segment plus the auxiliary value-tier,
// engagement and churn-risk labels. It reads scores and never mutates them.
type Classifier struct{}

// NewClassifier creates a new segment classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify produces one SegmentAssignment per profile, positionally aligned
// with the input. Value tiers are population-relative, so the full profile
// set is required in a single call.
func (c *Classifier) Classify(profiles []domain.RFMProfile, scores []domain.RFMScore) ([]domain.SegmentAssignment, error) {
	tiers := assignValueTiers(profiles)

	assignments := make([]domain.SegmentAssignment, len(profiles))
	for i := range profiles {
		segment, err := ClassifySegment(scores[i], profiles[i].LifespanDays)
		if err != nil {
			return nil, domain.NewStageError(domain.StageClassify, profiles[i].CustomerID, err)
		}
		assignments[i] = domain.SegmentAssignment{
			CustomerID:       profiles[i].CustomerID,
			Segment:          segment,
			ValueTier:        tiers[profiles[i].CustomerID],
			EngagementLevel:  EngagementLevelFor(scores[i]),
			ChurnRisk:        ChurnRiskFor(profiles[i].RecencyDays, scores[i].Frequency),
			BusinessPriority: segmentPriorities[segment],
		}
	}
	return assignments, nil
}

// ClassifySegment evaluates the decision list in order and returns the first
// matching segment. The catch-all rule guarantees a match; a fall-through is
// an internal invariant violation.
func ClassifySegment(score domain.RFMScore, lifespanDays int) (domain.Segment, error) {
	for _, r := range segmentRules {
		if r.matches(score, lifespanDays) {
			return r.segment, nil
		}
	}
	return "", domain.ErrUnclassified
}

// PriorityFor returns the business priority for a segment
func PriorityFor(segment domain.Segment) domain.BusinessPriority {
	return segmentPriorities[segment]
}

// EngagementLevelFor derives the engagement label from joint recency and
// frequency score thresholds
func EngagementLevelFor(s domain.RFMScore) domain.EngagementLevel {
	switch {
	case s.Recency >= 4 && s.Frequency >= 4:
		return domain.EngagementHigh
	case s.Recency >= 3 && s.Frequency >= 3:
		return domain.EngagementEngaged
	case s.Recency >= 2 || s.Frequency >= 2:
		return domain.EngagementModerate
	default:
		return domain.EngagementDisengaged
	}
}

// ChurnRiskFor combines absolute recency-day thresholds with the frequency
// score. A habitual purchaser with a quiet half-year is a medium risk, not a
// high one.
func ChurnRiskFor(recencyDays, frequencyScore int) domain.ChurnRisk {
	switch {
	case recencyDays <= churnActiveDays:
		return domain.ChurnActive
	case recencyDays <= churnLowDays:
		return domain.ChurnLow
	case recencyDays <= churnMediumDays || frequencyScore >= 3:
		return domain.ChurnMedium
	default:
		return domain.ChurnHigh
	}
}

// assignValueTiers ranks the population by monetary total and splits it into
// fixed share bands: top 10% Platinum, next 20% Gold, next 30% Silver, rest
// Bronze. Ties are broken by customer ID so tiering is deterministic.
func assignValueTiers(profiles []domain.RFMProfile) map[string]domain.ValueTier {
	order := make([]int, len(profiles))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		pa, pb := &profiles[order[a]], &profiles[order[b]]
		if !pa.Monetary.Equal(pb.Monetary) {
			return pa.Monetary.GreaterThan(pb.Monetary)
		}
		return pa.CustomerID < pb.CustomerID
	})

	n := len(profiles)
	platinum := ceilShare(n, 10)
	gold := ceilShare(n, 30)
	silver := ceilShare(n, 60)

	tiers := make(map[string]domain.ValueTier, n)
	for rank, idx := range order {
		id := profiles[idx].CustomerID
		switch {
		case rank < platinum:
			tiers[id] = domain.TierPlatinum
		case rank < gold:
			tiers[id] = domain.TierGold
		case rank < silver:
			tiers[id] = domain.TierSilver
		default:
			tiers[id] = domain.TierBronze
		}
	}
	return tiers
}

// ceilShare returns ceil(n * pct / 100)
func ceilShare(n, pct int) int {
	return (n*pct + 99) / 100
}
