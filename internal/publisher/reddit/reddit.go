// Package reddit publishes share content as self posts through the Reddit
// OAuth API using a script-app password grant.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/PatronScore/internal/domain"
	"github.com/utafrali/PatronScore/internal/publisher"
	apperrors "github.com/utafrali/PatronScore/pkg/errors"
	"github.com/utafrali/PatronScore/pkg/httpclient"
)

// CollaboratorName labels errors and breaker metrics.
const CollaboratorName = "reddit"

// Default endpoints.
const (
	DefaultAuthURL = "https://www.reddit.com"
	DefaultAPIURL  = "https://oauth.reddit.com"
)

// tokenSkew renews a token this long before it expires.
const tokenSkew = time.Minute

const maxResponseBody = 1 << 20

// Config holds script-app credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	AuthURL      string
	APIURL       string
}

// Client implements publisher.Publisher.
type Client struct {
	http httpclient.Doer
	cfg  Config
	now  func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ publisher.Publisher = (*Client)(nil)

// New creates a Reddit publisher.
func New(doer httpclient.Doer, cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.AuthURL = strings.TrimRight(cfg.AuthURL, "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &Client{http: doer, cfg: cfg, now: time.Now}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

type submitResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			URL  string `json:"url"`
			Name string `json:"name"`
		} `json:"data"`
	} `json:"json"`
}

// Publish submits content as a self post to the subreddit named by its
// channel. API-level rejections come back as a failed result together with
// the error.
func (c *Client) Publish(ctx context.Context, content *domain.ShareContent) (*domain.PublishResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"api_type": {"json"},
		"kind":     {"self"},
		"sr":       {content.Channel},
		"title":    {content.Title},
		"text":     {content.Body},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/api/submit", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	c.setUserAgent(req)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit post: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.resetToken()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpclient.ParseResponseError(resp, CollaboratorName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out submitResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	if len(out.JSON.Errors) > 0 {
		msg := describeErrors(out.JSON.Errors)
		return &domain.PublishResult{Error: msg},
			apperrors.CollaboratorFailure(CollaboratorName, &httpclient.StatusError{Status: resp.StatusCode, Message: msg})
	}
	if out.JSON.Data.URL == "" {
		return nil, apperrors.CollaboratorFailure(CollaboratorName, fmt.Errorf("submit response has no url"))
	}
	return &domain.PublishResult{Success: true, URL: out.JSON.Data.URL}, nil
}

// accessToken returns a cached bearer token, fetching a new one when it is
// missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	if c.cfg.ClientID == "" || c.cfg.Username == "" {
		return "", apperrors.CollaboratorFailure(CollaboratorName, fmt.Errorf("credentials not configured"))
	}

	form := url.Values{
		"grant_type": {"password"},
		"username":   {c.cfg.Username},
		"password":   {c.cfg.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setUserAgent(req)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", httpclient.ParseResponseError(resp, CollaboratorName)
	}
	defer func() { _ = resp.Body.Close() }()

	var tok tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	// Reddit reports bad credentials as 200 with an error field.
	if tok.Error != "" || tok.AccessToken == "" {
		msg := tok.Error
		if msg == "" {
			msg = "empty access token"
		}
		return "", apperrors.CollaboratorFailure(CollaboratorName, &httpclient.StatusError{Status: resp.StatusCode, Message: msg})
	}

	c.token = tok.AccessToken
	c.expires = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	return c.token, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
}

// describeErrors flattens Reddit's [code, message, field] error triples.
func describeErrors(errs [][]any) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		strs := make([]string, 0, len(e))
		for _, v := range e {
			if s, ok := v.(string); ok && s != "" {
				strs = append(strs, s)
			}
		}
		if len(strs) > 0 {
			parts = append(parts, strings.Join(strs, ": "))
		}
	}
	if len(parts) == 0 {
		return "submission rejected"
	}
	return strings.Join(parts, "; ")
}
