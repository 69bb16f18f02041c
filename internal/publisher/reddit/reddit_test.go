package reddit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PatronScore/internal/domain"
	apperrors "github.com/utafrali/PatronScore/pkg/errors"
	"github.com/utafrali/PatronScore/pkg/httpclient"
)

type fakeReddit struct {
	mu         sync.Mutex
	tokenHits  atomic.Int32
	submitHits atomic.Int32
	tokenBody  string
	submitCode int
	submitBody string
	lastForm   chan map[string]string
}

func newFakeReddit() *fakeReddit {
	return &fakeReddit{
		tokenBody:  `{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`,
		submitCode: http.StatusOK,
		submitBody: `{"json":{"errors":[],"data":{"url":"https://www.reddit.com/r/KindCustomers/comments/abc123/x/","name":"t3_abc123"}}}`,
		lastForm:   make(chan map[string]string, 8),
	}
}

func (f *fakeReddit) setSubmit(code int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCode, f.submitBody = code, body
}

func (f *fakeReddit) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "patron-bot", r.PostForm.Get("username"))
		f.mu.Lock()
		body := f.tokenBody
		f.mu.Unlock()
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/api/submit", func(w http.ResponseWriter, r *http.Request) {
		f.submitHits.Add(1)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "patronscore-test/1.0", r.Header.Get("User-Agent"))
		assert.NoError(t, r.ParseForm())
		f.lastForm <- map[string]string{
			"sr":    r.PostForm.Get("sr"),
			"kind":  r.PostForm.Get("kind"),
			"title": r.PostForm.Get("title"),
			"text":  r.PostForm.Get("text"),
		}
		f.mu.Lock()
		code, body := f.submitCode, f.submitBody
		f.mu.Unlock()
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	})
	return mux
}

func newClient(t *testing.T, f *fakeReddit, name string) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	doer := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxConnsPerHost: 2}),
		httpclient.DefaultCircuitBreakerConfig(name),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return New(doer, Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "patron-bot",
		Password:     "hunter2",
		UserAgent:    "patronscore-test/1.0",
		AuthURL:      srv.URL,
		APIURL:       srv.URL + "/",
	})
}

func content() *domain.ShareContent {
	return &domain.ShareContent{
		Title:   "5/5 Customer Review",
		Body:    "A server rated this customer 5/5.",
		Channel: domain.ChannelPositive,
	}
}

func TestPublish_Success(t *testing.T) {
	f := newFakeReddit()
	c := newClient(t, f, "reddit-success")

	res, err := c.Publish(context.Background(), content())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "https://www.reddit.com/r/KindCustomers/comments/abc123/x/", res.URL)

	form := <-f.lastForm
	assert.Equal(t, "KindCustomers", form["sr"])
	assert.Equal(t, "self", form["kind"])
	assert.Equal(t, "5/5 Customer Review", form["title"])
	assert.Equal(t, "A server rated this customer 5/5.", form["text"])
}

func TestPublish_ReusesToken(t *testing.T) {
	f := newFakeReddit()
	c := newClient(t, f, "reddit-token-reuse")

	for i := 0; i < 3; i++ {
		_, err := c.Publish(context.Background(), content())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.tokenHits.Load())
	assert.Equal(t, int32(3), f.submitHits.Load())
}

func TestPublish_RefreshesExpiredToken(t *testing.T) {
	f := newFakeReddit()
	c := newClient(t, f, "reddit-token-expiry")
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Publish(context.Background(), content())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = c.Publish(context.Background(), content())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokenHits.Load())
}

func TestPublish_BadCredentials(t *testing.T) {
	f := newFakeReddit()
	f.tokenBody = `{"error":"invalid_grant"}`
	c := newClient(t, f, "reddit-bad-creds")

	res, err := c.Publish(context.Background(), content())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCollaborator)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Zero(t, f.submitHits.Load())
}

func TestPublish_MissingCredentials(t *testing.T) {
	c := New(httpclient.New(httpclient.DefaultConfig()), Config{})
	_, err := c.Publish(context.Background(), content())
	assert.ErrorIs(t, err, apperrors.ErrCollaborator)
}

func TestPublish_APIErrors(t *testing.T) {
	f := newFakeReddit()
	f.submitBody = `{"json":{"errors":[["SUBREDDIT_NOEXIST","that subreddit doesn't exist","sr"]],"data":{}}}`
	c := newClient(t, f, "reddit-api-errors")

	res, err := c.Publish(context.Background(), content())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCollaborator)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, "SUBREDDIT_NOEXIST: that subreddit doesn't exist: sr", res.Error)
}

func TestPublish_UnauthorizedResetsToken(t *testing.T) {
	f := newFakeReddit()
	f.submitCode = http.StatusUnauthorized
	f.submitBody = `{"message":"Unauthorized"}`
	c := newClient(t, f, "reddit-401")

	_, err := c.Publish(context.Background(), content())
	require.Error(t, err)
	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)

	f.setSubmit(http.StatusOK, newFakeReddit().submitBody)
	_, err = c.Publish(context.Background(), content())
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.tokenHits.Load())
}

func TestDescribeErrors(t *testing.T) {
	assert.Equal(t, "submission rejected", describeErrors(nil))
	assert.Equal(t, "RATELIMIT: slow down", describeErrors([][]any{{"RATELIMIT", "slow down", nil}}))
}
