package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/PatronScore/internal/aggregate"
	"github.com/utafrali/PatronScore/internal/anonymize"
	"github.com/utafrali/PatronScore/internal/cache"
	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/internal/metrics"
	"github.com/utafrali/PatronScore/internal/profile"
	"github.com/utafrali/PatronScore/internal/publisher"
	"github.com/utafrali/PatronScore/internal/repository"
	"github.com/utafrali/PatronScore/internal/share"
	apperrors "github.com/utafrali/PatronScore/pkg/errors"
	"github.com/utafrali/PatronScore/pkg/logger"
)

var errUnknownPhone = &apperrors.AppError{
	Code:    "NOT_FOUND",
	Message: "no customer has been reviewed under this phone number",
	Status:  http.StatusNotFound,
	Err:     apperrors.ErrNotFound,
}

// Recompute triggers, also used as metric labels.
const (
	TriggerLookup        = "lookup"
	TriggerReviewCreated = "review.created"
	TriggerReviewUpdated = "review.updated"
	TriggerReviewDeleted = "review.deleted"
)

// EventPublisher is the set of domain events the service emits. It is
// satisfied by *event.Producer.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewUpdated(ctx context.Context, review *domain.Review) error
	PublishReviewDeleted(ctx context.Context, reviewID, customerID string) error
	PublishCustomerFlagged(ctx context.Context, scores *domain.AggregateScores, trigger string) error
	PublishReviewShared(ctx context.Context, review *domain.Review, channel, url string) error
}

// ReputationService implements review writes, reputation lookups and sharing.
type ReputationService struct {
	customers repository.CustomerRepository
	reviews   repository.ReviewRepository
	cache     cache.AggregateCache
	shares    *share.Generator
	publisher publisher.Publisher
	events    EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	keys      anonymize.Hasher
	now       func() time.Time
}

// Deps groups the collaborators of ReputationService. Metrics may be nil.
type Deps struct {
	Customers repository.CustomerRepository
	Reviews   repository.ReviewRepository
	Cache     cache.AggregateCache
	Shares    *share.Generator
	Publisher publisher.Publisher
	Events    EventPublisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	// LookupKeys derives lookup keys from phone numbers. The zero value
	// uses unkeyed SHA-256.
	LookupKeys anonymize.Hasher
}

// NewReputationService creates a new reputation service.
func NewReputationService(d Deps) *ReputationService {
	return &ReputationService{
		customers: d.Customers,
		reviews:   d.Reviews,
		cache:     d.Cache,
		shares:    d.Shares,
		publisher: d.Publisher,
		events:    d.Events,
		metrics:   d.Metrics,
		logger:    d.Logger,
		keys:      d.LookupKeys,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SubmitReviewInput holds the parameters for submitting a review. Zero
// dimension ratings default to the overall rating.
type SubmitReviewInput struct {
	Phone        string
	DisplayName  *string
	Overall      float64
	Behavior     float64
	Payment      float64
	Maintenance  float64
	Comment      string
	Role         string
	BusinessName *string
}

// UpdateReviewInput holds the fields of a partial review update. Nil fields
// are left unchanged.
type UpdateReviewInput struct {
	Overall      *float64
	Behavior     *float64
	Payment      *float64
	Maintenance  *float64
	Comment      *string
	Role         *string
	BusinessName *string
}

// checkRatings rejects supplied ratings of zero. On create a zero dimension
// means "same as overall", but on update it would silently discard the
// stored value.
func (in UpdateReviewInput) checkRatings() error {
	for _, r := range []struct {
		name string
		v    *float64
	}{
		{"overall", in.Overall},
		{"behavior", in.Behavior},
		{"payment", in.Payment},
		{"maintenance", in.Maintenance},
	} {
		if r.v != nil && *r.v == 0 {
			return apperrors.InvalidField(r.name, "must be between 1 and 5")
		}
	}
	return nil
}

// log returns the service logger carrying the request and customer
// identifiers found in ctx.
func (s *ReputationService) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, s.logger)
}

func (in UpdateReviewInput) empty() bool {
	return in.Overall == nil && in.Behavior == nil && in.Payment == nil && in.Maintenance == nil &&
		in.Comment == nil && in.Role == nil && in.BusinessName == nil
}

// Lookup returns the reputation profile of the customer with the given phone
// number. An unknown number yields a not-found error, never an empty profile.
func (s *ReputationService) Lookup(ctx context.Context, phone string) (*domain.ReputationProfile, error) {
	key, err := s.keys.Key(phone)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByLookupKey(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errUnknownPhone
		}
		return nil, fmt.Errorf("get customer by lookup key: %w", err)
	}

	p, err := s.buildProfile(ctx, customer, phone)
	if err != nil {
		return nil, err
	}
	if p.Flagged {
		s.metrics.FlaggedLookup()
	}
	return p, nil
}

// ProfileByCustomerID returns the reputation profile of a customer. Without
// the phone number the identity falls back to the display name override or
// the anonymous label.
func (s *ReputationService) ProfileByCustomerID(ctx context.Context, customerID string) (*domain.ReputationProfile, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("customer", customerID)
		}
		return nil, fmt.Errorf("get customer by id: %w", err)
	}
	return s.buildProfile(ctx, customer, "")
}

func (s *ReputationService) buildProfile(ctx context.Context, customer *domain.Customer, phone string) (*domain.ReputationProfile, error) {
	ctx = logger.WithCustomerID(ctx, customer.ID)

	entry, err := s.cache.Get(ctx, customer.ID)
	if err != nil {
		s.log(ctx).WarnContext(ctx, "aggregate cache read failed, recomputing",
			slog.String("error", err.Error()),
		)
		entry = cache.Entry{State: cache.StateMissing}
	}
	s.metrics.CacheLookup(string(entry.State))

	if entry.Usable() {
		recent, err := s.reviews.ListRecentByCustomer(ctx, customer.ID, profile.RecentLimit)
		if err != nil {
			return nil, fmt.Errorf("list recent reviews: %w", err)
		}
		stats, err := s.reviews.StatsByCustomer(ctx, customer.ID)
		if err != nil {
			return nil, fmt.Errorf("review stats: %w", err)
		}

		switch {
		case entry.Scores.ReviewCount > 0 && len(recent) == 0:
			s.log(ctx).WarnContext(ctx, "aggregate reports reviews but none were found",
				slog.Int("review_count", entry.Scores.ReviewCount),
			)
			if err := s.cache.MarkStale(ctx, customer.ID); err != nil {
				s.log(ctx).ErrorContext(ctx, "failed to invalidate inconsistent aggregate",
					slog.String("error", err.Error()),
				)
			}
			return profile.Build(profile.Input{Customer: customer, Phone: phone}), nil

		case !stats.Matches(entry.Scores):
			// A write landed while the cache was unreachable.
			s.log(ctx).InfoContext(ctx, "cached aggregate is behind the review store, recomputing",
				slog.Int("cached_count", entry.Scores.ReviewCount),
				slog.Int("stored_count", stats.Count),
			)

		default:
			return profile.Build(profile.Input{
				Customer:  customer,
				Phone:     phone,
				Reviews:   recent,
				Aggregate: entry.Scores,
			}), nil
		}
	}

	scores, reviews, err := s.recompute(ctx, customer.ID, TriggerLookup)
	if err != nil {
		return nil, err
	}
	return profile.Build(profile.Input{
		Customer:  customer,
		Phone:     phone,
		Reviews:   reviews,
		Aggregate: scores,
	}), nil
}

// recompute is the single entry point that derives a customer's aggregate
// from the review store and writes it to the cache slot. The slot generation
// is read before the reviews, so the result is only stored when no write
// happened in between. It also returns the review snapshot it aggregated.
func (s *ReputationService) recompute(ctx context.Context, customerID, trigger string) (_ domain.AggregateScores, _ []domain.Review, err error) {
	defer func() { s.metrics.Recompute(trigger, err) }()
	ctx = logger.WithCustomerID(ctx, customerID)

	prev, cerr := s.cache.Get(ctx, customerID)
	if cerr != nil {
		s.log(ctx).WarnContext(ctx, "aggregate cache read failed",
			slog.String("error", cerr.Error()),
		)
		prev = cache.Entry{State: cache.StateMissing}
	}

	reviews, err := s.reviews.ListByCustomer(ctx, customerID)
	if err != nil {
		return domain.AggregateScores{}, nil, fmt.Errorf("list reviews for recompute: %w", err)
	}

	scores := aggregate.Recompute(customerID, reviews)

	stored := false
	if cerr == nil {
		stored, cerr = s.cache.Put(ctx, scores, prev.Generation)
		if cerr != nil {
			s.log(ctx).WarnContext(ctx, "failed to store aggregate",
				slog.String("error", cerr.Error()),
			)
		} else if !stored {
			s.log(ctx).DebugContext(ctx, "aggregate superseded by a newer write",
				slog.Int64("generation", prev.Generation),
			)
		}
	}

	if trigger != TriggerLookup && stored && scores.Flagged && !prev.Scores.Flagged {
		if err := s.events.PublishCustomerFlagged(ctx, &scores, trigger); err != nil {
			s.log(ctx).ErrorContext(ctx, "failed to publish customer.flagged event",
				slog.String("error", err.Error()),
			)
		}
		s.log(ctx).InfoContext(ctx, "customer flagged",
			slog.Float64("overall", scores.Overall),
			slog.Int("review_count", scores.ReviewCount),
		)
	}

	return scores, reviews, nil
}

// afterWrite invalidates and refreshes the aggregate of a customer whose
// reviews changed. The write itself has already been committed, so failures
// are logged and the next lookup recomputes.
func (s *ReputationService) afterWrite(ctx context.Context, customerID, trigger string) {
	ctx = logger.WithCustomerID(ctx, customerID)
	if err := s.cache.MarkStale(ctx, customerID); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to mark aggregate stale",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()),
		)
	}
	if _, _, err := s.recompute(ctx, customerID, trigger); err != nil {
		s.log(ctx).ErrorContext(ctx, "aggregate recompute after write failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()),
		)
	}
}

// SubmitReview records a review for the customer with the given phone
// number, creating the customer on first sight.
func (s *ReputationService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*domain.Review, error) {
	key, err := s.keys.Key(input.Phone)
	if err != nil {
		return nil, err
	}

	ratings, err := domain.RatingInput{
		Overall:     input.Overall,
		Behavior:    input.Behavior,
		Payment:     input.Payment,
		Maintenance: input.Maintenance,
	}.Materialize()
	if err != nil {
		return nil, err
	}
	if !domain.IsValidRole(input.Role) {
		return nil, invalidRole()
	}

	customer, err := s.customers.Upsert(ctx, key, trimmed(input.DisplayName))
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	ctx = logger.WithCustomerID(ctx, customer.ID)

	now := s.now()
	review := &domain.Review{
		ID:           uuid.New().String(),
		CustomerID:   customer.ID,
		Ratings:      ratings,
		Comment:      strings.TrimSpace(input.Comment),
		Role:         input.Role,
		BusinessName: trimmed(input.BusinessName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.afterWrite(ctx, customer.ID, TriggerReviewCreated)

	if err := s.events.PublishReviewCreated(ctx, review); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.Float64("overall", review.Overall),
	)
	return review, nil
}

// UpdateReview applies a partial update to a review. Dimensions that are not
// supplied keep their stored value.
func (s *ReputationService) UpdateReview(ctx context.Context, id string, input UpdateReviewInput) (*domain.Review, error) {
	if input.empty() {
		return nil, apperrors.InvalidInput("no fields to update")
	}
	if err := input.checkRatings(); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review for update: %w", err)
	}
	ctx = logger.WithCustomerID(ctx, review.CustomerID)

	ratings, err := domain.RatingInput{
		Overall:     valueOr(input.Overall, review.Overall),
		Behavior:    valueOr(input.Behavior, review.Behavior),
		Payment:     valueOr(input.Payment, review.Payment),
		Maintenance: valueOr(input.Maintenance, review.Maintenance),
	}.Materialize()
	if err != nil {
		return nil, err
	}
	review.Ratings = ratings

	if input.Role != nil {
		if !domain.IsValidRole(*input.Role) {
			return nil, invalidRole()
		}
		review.Role = *input.Role
	}
	if input.Comment != nil {
		review.Comment = strings.TrimSpace(*input.Comment)
	}
	if input.BusinessName != nil {
		review.BusinessName = trimmed(input.BusinessName)
	}
	review.UpdatedAt = s.now()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.afterWrite(ctx, review.CustomerID, TriggerReviewUpdated)

	if err := s.events.PublishReviewUpdated(ctx, review); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
	)
	return review, nil
}

// DeleteReview removes a review and refreshes its customer's aggregate.
func (s *ReputationService) DeleteReview(ctx context.Context, id string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review for delete: %w", err)
	}
	ctx = logger.WithCustomerID(ctx, review.CustomerID)

	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.afterWrite(ctx, review.CustomerID, TriggerReviewDeleted)

	if err := s.events.PublishReviewDeleted(ctx, review.ID, review.CustomerID); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
	)
	return nil
}

// GetReview retrieves a review by its ID.
func (s *ReputationService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

// ListReviewsByBusiness returns a paginated list of reviews left at a business.
func (s *ReputationService) ListReviewsByBusiness(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	filter.BusinessName = strings.TrimSpace(filter.BusinessName)
	if filter.BusinessName == "" {
		return nil, 0, apperrors.InvalidField("business", "is required")
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	reviews, total, err := s.reviews.ListByBusiness(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews by business: %w", err)
	}
	return reviews, total, nil
}

func invalidRole() error {
	return apperrors.InvalidField("role", "must be one of: "+strings.Join(domain.ValidRoles(), ", "))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func valueOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
