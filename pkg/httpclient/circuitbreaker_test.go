package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/PatronScore/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Second,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func testClient() *Client {
	return New(Config{Timeout: 5 * time.Second, MaxConnsPerHost: 4})
}

func post(cb *CircuitBreakerClient, ctx context.Context, url string) (*http.Response, error) {
	return cb.Post(ctx, url, "application/json", strings.NewReader(`{}`))
}

func statusServer(t *testing.T, status *atomic.Int32, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"error":{"message":"upstream says no"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCircuitBreaker_ClosedStateSuccess(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := statusServer(t, &status, nil)

	cb := NewCircuitBreakerClient(testClient(), testCBConfig("cb-closed"), testLogger())
	resp, err := post(cb, context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_5xxIsCollaboratorFailure(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadGateway)
	srv := statusServer(t, &status, nil)

	cb := NewCircuitBreakerClient(testClient(), testCBConfig("cb-5xx"), testLogger())
	_, err := post(cb, context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCollaborator)
	assert.Contains(t, err.Error(), "upstream says no")
}

func TestCircuitBreaker_TripsAndRejectsWithoutCalling(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := statusServer(t, &status, &hits)

	cfg := testCBConfig("cb-trip")
	cfg.Timeout = 5 * time.Second
	cb := NewCircuitBreakerClient(testClient(), cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, err := post(cb, context.Background(), srv.URL)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	before := hits.Load()
	for i := 0; i < 3; i++ {
		_, err := post(cb, context.Background(), srv.URL)
		require.ErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, before, hits.Load())
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := statusServer(t, &status, nil)

	cfg := testCBConfig("cb-recover")
	cfg.Timeout = 100 * time.Millisecond
	cb := NewCircuitBreakerClient(testClient(), cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, _ = post(cb, context.Background(), srv.URL)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(150 * time.Millisecond)
	status.Store(http.StatusOK)

	resp, err := post(cb, context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_4xxPassesThrough(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	srv := statusServer(t, &status, nil)

	cb := NewCircuitBreakerClient(testClient(), testCBConfig("cb-4xx"), testLogger())
	for i := 0; i < 5; i++ {
		resp, err := post(cb, context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(testClient(), testCBConfig("cb-ctx"), testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := post(cb, ctx, srv.URL)
	require.Error(t, err)
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("textgen")
	assert.Equal(t, "textgen", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(5), cfg.MinRequests)
}
