// Package profile composes the customer-facing reputation profile.
package profile

import (
	"sort"

	"github.com/utafrali/PatronScore/internal/anonymize"
	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/internal/tags"
)

// RecentLimit is the number of most recent reviews shown on a profile.
const RecentLimit = 10

// Input is everything a profile is built from.
type Input struct {
	Customer *domain.Customer
	// Phone is the raw number the lookup was made with. Empty when the
	// profile is requested by customer id.
	Phone     string
	Reviews   []domain.Review
	Aggregate domain.AggregateScores
}

// Identity returns the name a profile is shown under: the customer's display
// name override when set, otherwise the pseudonym derived from phone.
func Identity(customer *domain.Customer, phone string) string {
	if customer.HasDisplayName() {
		return *customer.DisplayName
	}
	if phone != "" {
		if name, err := anonymize.DisplayIdentity(phone); err == nil {
			return name
		}
	}
	return domain.AnonymousDisplayName
}

// Build combines the aggregate, the display identity and tagged recent
// reviews. An empty review set yields a "no reviews yet" profile whatever the
// aggregate says.
func Build(in Input) *domain.ReputationProfile {
	p := &domain.ReputationProfile{
		DisplayIdentity: Identity(in.Customer, in.Phone),
		RecentReviews:   []domain.ProfileReview{},
	}
	if in.Customer != nil {
		p.CustomerID = in.Customer.ID
	}
	if len(in.Reviews) == 0 {
		return p
	}

	agg := in.Aggregate
	p.HasReviews = true
	p.Overall = agg.Overall
	p.Behavior = agg.Behavior
	p.Payment = agg.Payment
	p.Maintenance = agg.Maintenance
	p.ReviewCount = agg.ReviewCount
	p.Flagged = agg.Flagged
	p.LastReviewAt = agg.LastReviewAt

	for _, r := range Recent(in.Reviews, RecentLimit) {
		p.RecentReviews = append(p.RecentReviews, domain.ProfileReview{
			ID:           r.ID,
			Ratings:      r.Ratings,
			Comment:      r.Comment,
			Role:         r.Role,
			BusinessName: r.BusinessName,
			Tags:         tags.Infer(r.Overall, r.Comment),
			CreatedAt:    r.CreatedAt,
		})
	}
	return p
}

// Recent returns at most limit reviews, newest first. Reviews created at the
// same instant are ordered by insertion sequence, later first. The input is
// not modified.
func Recent(reviews []domain.Review, limit int) []domain.Review {
	sorted := make([]domain.Review, len(reviews))
	copy(sorted, reviews)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Seq > b.Seq
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
