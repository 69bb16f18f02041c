// Package textgen is a client for an OpenAI-compatible chat completion API,
// used to generate share titles.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/utafrali/PatronScore/internal/share"
	"github.com/utafrali/PatronScore/pkg/httpclient"
)

// CollaboratorName labels errors and breaker metrics.
const CollaboratorName = "textgen"

const maxResponseBody = 1 << 20

// Config configures the client.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// Client implements share.TitleGenerator.
type Client struct {
	http httpclient.Doer
	cfg  Config
}

var _ share.TitleGenerator = (*Client)(nil)

// New creates a Client. An empty APIKey is allowed; every call then fails with
// share.ErrNoCredential without touching the network.
func New(doer httpclient.Doer, cfg Config) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 32
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{http: doer, cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateTitle sends prompt as a single user message and returns the first
// choice's content.
func (c *Client) GenerateTitle(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%s: %w", CollaboratorName, share.ErrNoCredential)
	}

	payload, err := json.Marshal(chatRequest{
		Model:     c.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", httpclient.ParseResponseError(resp, CollaboratorName)
	}
	defer func() { _ = resp.Body.Close() }()

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s: response has no choices", CollaboratorName)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
