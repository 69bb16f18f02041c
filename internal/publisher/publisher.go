// Package publisher defines the boundary to the external network shared
// content is posted to.
package publisher

import (
	"context"

	"github.com/utafrali/PatronScore/internal/domain"
)

// Provider names accepted by configuration.
const (
	ProviderReddit = "reddit"
	ProviderMock   = "mock"
)

// Publisher posts share content. Implementations may return a failed result,
// an error, or both; callers must treat every call as fallible. Retries, if
// any, belong to the implementation.
type Publisher interface {
	Publish(ctx context.Context, content *domain.ShareContent) (*domain.PublishResult, error)
}
