package engine

import (
	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// recommendations is the static marketing playbook keyed by segment
var recommendations = map[domain.Segment]domain.Recommendation{
	domain.SegmentChampions: {
		Segment:     domain.SegmentChampions,
		Description: "Best customers with top scores across all three metrics",
		Strategy:    "VIP treatment, exclusive offers, loyalty rewards",
		Actions:     []string{"Premium customer service", "Early access to new products", "Personalized offers", "Loyalty program benefits"},
	},
	domain.SegmentLoyalCustomers: {
		Segment:     domain.SegmentLoyalCustomers,
		Description: "High frequency and monetary value customers",
		Strategy:    "Upsell premium products, cross-sell, loyalty program",
		Actions:     []string{"Product recommendations", "Cross-selling campaigns", "Loyalty point bonuses", "Premium upgrades"},
	},
	domain.SegmentBigSpenders: {
		Segment:     domain.SegmentBigSpenders,
		Description: "High basket value with moderate purchase frequency",
		Strategy:    "Premium positioning, high-touch offers",
		Actions:     []string{"Premium product launches", "Concierge outreach", "Bundle offers", "Invitation-only events"},
	},
	domain.SegmentPotentialLoyalists: {
		Segment:     domain.SegmentPotentialLoyalists,
		Description: "Recent customers with good purchase frequency",
		Strategy:    "Membership offers, engagement campaigns",
		Actions:     []string{"Engagement sequences", "Product education", "Membership invitations", "Social proof"},
	},
	domain.SegmentNewCustomers: {
		Segment:     domain.SegmentNewCustomers,
		Description: "Recent first purchases, low frequency so far",
		Strategy:    "Onboarding sequence, welcome offers",
		Actions:     []string{"Welcome series", "Onboarding tutorials", "First purchase incentives", "Product discovery"},
	},
	domain.SegmentPromising: {
		Segment:     domain.SegmentPromising,
		Description: "Recently active with average spend and frequency",
		Strategy:    "Nurture toward loyalty with targeted incentives",
		Actions:     []string{"Targeted promotions", "Category recommendations", "Review requests", "Referral invitations"},
	},
	domain.SegmentNeedAttention: {
		Segment:     domain.SegmentNeedAttention,
		Description: "Above-average customers starting to slip",
		Strategy:    "Timely reactivation before engagement decays",
		Actions:     []string{"Limited-time offers", "Reminder campaigns", "Abandoned cart follow-ups", "Satisfaction surveys"},
	},
	domain.SegmentAboutToSleep: {
		Segment:     domain.SegmentAboutToSleep,
		Description: "Engagement fading, below-average recency",
		Strategy:    "Re-engagement before the customer lapses",
		Actions:     []string{"Win-back emails", "Personalized discounts", "New arrival highlights", "Feedback requests"},
	},
	domain.SegmentCannotLoseThem: {
		Segment:     domain.SegmentCannotLoseThem,
		Description: "Highest value customers at risk of churning",
		Strategy:    "Immediate intervention, premium support",
		Actions:     []string{"Personal account manager", "Exclusive previews", "Special retention offers", "Direct communication"},
	},
	domain.SegmentAtRisk: {
		Segment:     domain.SegmentAtRisk,
		Description: "High value but declining engagement",
		Strategy:    "Win-back campaigns, special offers",
		Actions:     []string{"Reactivation campaigns", "Exclusive discounts", "Personal outreach", "Feedback surveys"},
	},
	domain.SegmentHibernating: {
		Segment:     domain.SegmentHibernating,
		Description: "Previously active, now dormant",
		Strategy:    "Win-back series, incentive offers",
		Actions:     []string{"Re-engagement campaigns", "Comeback offers", "Product updates", "Limited-time promotions"},
	},
	domain.SegmentLostCustomers: {
		Segment:     domain.SegmentLostCustomers,
		Description: "Lowest scores, likely churned",
		Strategy:    "Basic promotional offers, surveys",
		Actions:     []string{"Exit surveys", "Basic promotional emails", "Win-back attempts", "Competitive analysis"},
	},
	domain.SegmentUnclassified: {
		Segment:     domain.SegmentUnclassified,
		Description: "Insufficient history for a behavioral segment",
		Strategy:    "Collect more signal before targeting",
		Actions:     []string{"Generic newsletters", "Profile enrichment prompts"},
	},
}

// RecommendationFor returns the marketing recommendation for a segment
func RecommendationFor(segment domain.Segment) (domain.Recommendation, bool) {
	r, ok := recommendations[segment]
	return r, ok
}

// Recommendations returns the full playbook in canonical segment order
func Recommendations() []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(recommendations))
	for _, segment := range domain.Segments() {
		out = append(out, recommendations[segment])
	}
	return out
}
