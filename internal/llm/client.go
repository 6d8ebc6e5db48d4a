package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultModel is used when Options.Model is empty.
	DefaultModel = "claude-3-sonnet-20240229"

	// APIVersion is sent as the Anthropic-Version header.
	APIVersion = "2023-06-01"

	// OAuthBeta is the beta flag required when authenticating with an OAuth token.
	OAuthBeta = "oauth-2025-04-20"
)

// Options configures the Anthropic API client.
type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxConcurrent int
	IsOAuth       bool
	Timeout       time.Duration // zero means no client-side timeout
}

// Client is an HTTP-based Anthropic API client.
type Client struct {
	opts Options
	sem  chan struct{}
	http http.Client
}

// NewClient creates a Client with sensible defaults.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.anthropic.com"
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}

	sem := make(chan struct{}, opts.MaxConcurrent)
	return &Client{opts: opts, sem: sem, http: http.Client{Timeout: opts.Timeout}}
}

// apiRequest is the JSON body sent to /v1/messages.
type apiRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

// apiResponse is the top-level JSON returned by /v1/messages.
type apiResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// apiError is the body the API returns on non-2xx responses.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: API returned status %d: %s", e.StatusCode, e.Message)
}

// Messages sends a conversation to the Anthropic Messages API and returns the
// text of the first text content block. model overrides Options.Model when set.
func (c *Client) Messages(ctx context.Context, model, system string, msgs []Message, maxTokens int) (string, error) {
	// Acquire semaphore slot.
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.sem }()

	if model == "" {
		model = c.opts.Model
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("llm: no messages to send")
	}

	reqBody := apiRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  msgs,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	url := strings.TrimRight(c.opts.BaseURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Anthropic-Version", APIVersion)

	if c.opts.IsOAuth {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
		req.Header.Set("Anthropic-Beta", OAuthBeta)
	} else {
		req.Header.Set("X-Api-Key", c.opts.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: send request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBytes)
		var apiErr apiError
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return "", &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return "", fmt.Errorf("llm: unmarshal response: %w", err)
	}

	for _, block := range apiResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("llm: no text block in response")
}
