package domain

import (
	"time"
)

// AggregateScores is the fold of a customer's review set. Scores are rounded
// to two decimals; Flagged was decided on the unrounded overall mean.
// UpdatedThrough is the latest UpdatedAt in the folded snapshot; together with
// ReviewCount it tells whether a cached fold still describes the store.
type AggregateScores struct {
	CustomerID     string     `json:"customer_id"`
	Overall        float64    `json:"overall"`
	Behavior       float64    `json:"behavior"`
	Payment        float64    `json:"payment"`
	Maintenance    float64    `json:"maintenance"`
	ReviewCount    int        `json:"review_count"`
	Flagged        bool       `json:"flagged"`
	LastReviewAt   *time.Time `json:"last_review_at,omitempty"`
	UpdatedThrough *time.Time `json:"updated_through,omitempty"`
}

// ProfileReview is a recent review as shown on a profile, with inferred tags.
type ProfileReview struct {
	ID string `json:"id"`
	Ratings
	Comment      string    `json:"comment"`
	Role         string    `json:"role"`
	BusinessName *string   `json:"business_name,omitempty"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReputationProfile is the customer-facing result of a lookup. It is derived
// entirely from a customer and its review set.
type ReputationProfile struct {
	CustomerID      string          `json:"customer_id"`
	DisplayIdentity string          `json:"display_identity"`
	HasReviews      bool            `json:"has_reviews"`
	Overall         float64         `json:"overall"`
	Behavior        float64         `json:"behavior"`
	Payment         float64         `json:"payment"`
	Maintenance     float64         `json:"maintenance"`
	ReviewCount     int             `json:"review_count"`
	Flagged         bool            `json:"flagged"`
	LastReviewAt    *time.Time      `json:"last_review_at,omitempty"`
	RecentReviews   []ProfileReview `json:"recent_reviews"`
}
