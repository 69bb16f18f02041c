// Package mock provides an in-process publisher for development and tests.
package mock

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/internal/publisher"
)

// DefaultBaseURL prefixes the URLs of mock posts.
const DefaultBaseURL = "https://mock.patronscore.local"

// ErrPublishFailed is returned when the publisher is set to fail.
var ErrPublishFailed = errors.New("mock publisher: publish failed")

// Publisher records every published item and answers with a fake URL.
type Publisher struct {
	mu        sync.Mutex
	baseURL   string
	fail      bool
	published []domain.ShareContent
}

var _ publisher.Publisher = (*Publisher)(nil)

// New creates a mock publisher. An empty baseURL uses DefaultBaseURL.
func New(baseURL string) *Publisher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Publisher{baseURL: strings.TrimRight(baseURL, "/")}
}

// SetFailing makes subsequent calls fail with ErrPublishFailed.
func (p *Publisher) SetFailing(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

// Publish records content and returns a URL under its channel.
func (p *Publisher) Publish(ctx context.Context, content *domain.ShareContent) (*domain.PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return nil, ErrPublishFailed
	}
	p.published = append(p.published, *content)

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return &domain.PublishResult{
		Success: true,
		URL:     p.baseURL + "/r/" + content.Channel + "/comments/" + id,
	}, nil
}

// Published returns a copy of everything published so far.
func (p *Publisher) Published() []domain.ShareContent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ShareContent, len(p.published))
	copy(out, p.published)
	return out
}
