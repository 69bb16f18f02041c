package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/PatronScore/internal/domain"
	pkgkafka "github.com/utafrali/PatronScore/pkg/kafka"
	"github.com/utafrali/PatronScore/pkg/logger"
)

// Kafka topic constants for reputation events.
const (
	TopicReviewCreated   = "patronscore.review.created"
	TopicReviewUpdated   = "patronscore.review.updated"
	TopicReviewDeleted   = "patronscore.review.deleted"
	TopicCustomerFlagged = "patronscore.customer.flagged"
	TopicReviewShared    = "patronscore.review.shared"
)

// Aggregate types. Review events are keyed by customer so that every event of
// one customer lands on the same partition in order.
const (
	AggregateTypeCustomer = "customer"
)

// SourceReputationService identifies events originating from this service.
const SourceReputationService = "reputation-service"

// ReviewData is the payload of the review.created and review.updated events.
// It never carries the phone number or the lookup key.
type ReviewData struct {
	ReviewID     string  `json:"review_id"`
	CustomerID   string  `json:"customer_id"`
	Overall      float64 `json:"overall"`
	Behavior     float64 `json:"behavior"`
	Payment      float64 `json:"payment"`
	Maintenance  float64 `json:"maintenance"`
	Role         string  `json:"role"`
	BusinessName string  `json:"business_name,omitempty"`
}

// ReviewDeletedData is the payload of the review.deleted event.
type ReviewDeletedData struct {
	ReviewID   string `json:"review_id"`
	CustomerID string `json:"customer_id"`
}

// CustomerFlaggedData is the payload of the customer.flagged event.
type CustomerFlaggedData struct {
	CustomerID  string  `json:"customer_id"`
	Overall     float64 `json:"overall"`
	ReviewCount int     `json:"review_count"`
	Trigger     string  `json:"trigger"`
}

// ReviewSharedData is the payload of the review.shared event.
type ReviewSharedData struct {
	ReviewID   string `json:"review_id"`
	CustomerID string `json:"customer_id"`
	Channel    string `json:"channel"`
	URL        string `json:"url"`
}

type eventPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes reputation events to Kafka.
type Producer struct {
	kafka  eventPublisher
	logger *slog.Logger
}

// NewProducer creates a new event producer. kafka is usually a *pkgkafka.Producer.
func NewProducer(kafka eventPublisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func reviewData(rv *domain.Review) ReviewData {
	d := ReviewData{
		ReviewID:    rv.ID,
		CustomerID:  rv.CustomerID,
		Overall:     rv.Overall,
		Behavior:    rv.Behavior,
		Payment:     rv.Payment,
		Maintenance: rv.Maintenance,
		Role:        rv.Role,
	}
	if rv.BusinessName != nil {
		d.BusinessName = *rv.BusinessName
	}
	return d
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, rv *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, rv.CustomerID, reviewData(rv))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, rv *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, rv.CustomerID, reviewData(rv))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, customerID string) error {
	return p.publish(ctx, TopicReviewDeleted, customerID, ReviewDeletedData{
		ReviewID:   reviewID,
		CustomerID: customerID,
	})
}

// PublishCustomerFlagged publishes a customer.flagged event for a customer
// whose aggregate just crossed below the flag threshold.
func (p *Producer) PublishCustomerFlagged(ctx context.Context, scores *domain.AggregateScores, trigger string) error {
	return p.publish(ctx, TopicCustomerFlagged, scores.CustomerID, CustomerFlaggedData{
		CustomerID:  scores.CustomerID,
		Overall:     scores.Overall,
		ReviewCount: scores.ReviewCount,
		Trigger:     trigger,
	})
}

// PublishReviewShared publishes a review.shared event after a successful publish.
func (p *Producer) PublishReviewShared(ctx context.Context, rv *domain.Review, channel, url string) error {
	return p.publish(ctx, TopicReviewShared, rv.CustomerID, ReviewSharedData{
		ReviewID:   rv.ID,
		CustomerID: rv.CustomerID,
		Channel:    channel,
		URL:        url,
	})
}

func (p *Producer) publish(ctx context.Context, topic, customerID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, customerID, AggregateTypeCustomer, SourceReputationService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("customer_id", customerID),
	)
	return nil
}
