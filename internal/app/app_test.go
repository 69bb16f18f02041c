package app

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PatronScore/internal/config"
	"github.com/utafrali/PatronScore/internal/publisher/mock"
	"github.com/utafrali/PatronScore/internal/publisher/reddit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPublisher_Mock(t *testing.T) {
	cfg := &config.Config{PublisherProvider: "mock", MockPublisherURL: "https://posts.test"}

	pub := newPublisher(cfg, discardLogger())
	_, ok := pub.(*mock.Publisher)
	assert.True(t, ok)
}

func TestNewPublisher_Reddit(t *testing.T) {
	cfg := &config.Config{
		PublisherProvider: "reddit",
		RedditClientID:    "id",
		RedditSecret:      "secret",
		RedditUsername:    "bot",
		RedditPassword:    "pw",
		RedditUserAgent:   "patronscore-test/1.0",
	}

	pub := newPublisher(cfg, discardLogger())
	_, ok := pub.(*reddit.Client)
	assert.True(t, ok)
}

func TestNewBreakerClient(t *testing.T) {
	require.NotNil(t, newBreakerClient("app-test-title", 250*time.Millisecond, discardLogger()))
	require.NotNil(t, newBreakerClient("app-test-default", 0, discardLogger()))
}
