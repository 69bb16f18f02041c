package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/pkg/logger"
)

const publishFailedMessage = "failed to publish to the external network"

// Share builds anonymized share content for a review and posts it to the
// external network. A publish failure is not an error: it is reported as a
// result with Success false. Errors are returned only when the review or its
// customer cannot be loaded.
func (s *ReputationService) Share(ctx context.Context, reviewID string) (*domain.PublishResult, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for share: %w", err)
	}
	ctx = logger.WithCustomerID(ctx, review.CustomerID)
	customer, err := s.customers.GetByID(ctx, review.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer for share: %w", err)
	}

	content := s.shares.Generate(ctx, review, customer)

	res, err := s.publisher.Publish(ctx, content)
	if err != nil || res == nil {
		if err == nil {
			err = fmt.Errorf("publisher returned no result")
		}
		s.log(ctx).ErrorContext(ctx, "share publish failed",
			slog.String("review_id", review.ID),
			slog.String("channel", content.Channel),
			slog.String("error", err.Error()),
		)
		res = failedResult(res)
	}

	s.metrics.Share(content.Channel, res.Success)
	if !res.Success {
		if res.Error == "" {
			res.Error = publishFailedMessage
		}
		return res, nil
	}

	if err := s.events.PublishReviewShared(ctx, review, content.Channel, res.URL); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish review.shared event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "review shared",
		slog.String("review_id", review.ID),
		slog.String("channel", content.Channel),
		slog.String("url", res.URL),
	)
	return res, nil
}

// failedResult keeps the publisher's own failure message when it supplied one.
func failedResult(res *domain.PublishResult) *domain.PublishResult {
	out := &domain.PublishResult{Success: false, Error: publishFailedMessage}
	if res != nil && res.Error != "" {
		out.Error = res.Error
	}
	return out
}
