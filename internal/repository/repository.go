package repository

import (
	"context"
	"time"

	"github.com/utafrali/PatronScore/internal/domain"
)

// CustomerRepository defines the interface for customer persistence operations.
type CustomerRepository interface {
	// Upsert returns the customer with lookupKey, creating it when it does not
	// exist. A non-empty displayName replaces the stored override.
	Upsert(ctx context.Context, lookupKey string, displayName *string) (*domain.Customer, error)

	// GetByLookupKey retrieves a customer by its phone-derived key.
	GetByLookupKey(ctx context.Context, lookupKey string) (*domain.Customer, error)

	// GetByID retrieves a customer by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// ReviewFilter defines filter criteria for listing reviews.
type ReviewFilter struct {
	BusinessName string
	Page         int
	PerPage      int
}

// ReviewStats summarizes a customer's review set without reading it.
type ReviewStats struct {
	Count         int
	LastUpdatedAt *time.Time
}

// Matches reports whether scores were folded from a review set with these
// stats. A write the cache never heard about changes the count or moves the
// latest UpdatedAt.
func (s ReviewStats) Matches(scores domain.AggregateScores) bool {
	if s.Count != scores.ReviewCount {
		return false
	}
	if s.LastUpdatedAt == nil || scores.UpdatedThrough == nil {
		return s.LastUpdatedAt == nil && scores.UpdatedThrough == nil
	}
	return s.LastUpdatedAt.Equal(*scores.UpdatedThrough)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a review and sets its store-assigned Seq.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Update stores the mutable fields of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review by its identifier.
	Delete(ctx context.Context, id string) error

	// ListByCustomer returns every review of a customer, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Review, error)

	// ListRecentByCustomer returns at most limit reviews of a customer, newest first.
	ListRecentByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Review, error)

	// StatsByCustomer returns the count and latest update time of a customer's reviews.
	StatsByCustomer(ctx context.Context, customerID string) (ReviewStats, error)

	// ListByBusiness returns reviews left at a business, newest first, with the total count.
	ListByBusiness(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)
}
