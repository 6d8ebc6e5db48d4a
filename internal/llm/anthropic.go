package llm

import (
	"context"
	"fmt"
)

// AnthropicProvider implements Provider for the Anthropic API.
type AnthropicProvider struct {
	client *Client
}

// NewAnthropicProvider wraps an existing Client as a Provider.
func NewAnthropicProvider(c *Client) *AnthropicProvider {
	return &AnthropicProvider{client: c}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	text, err := p.client.Messages(ctx, req.Model, req.System, req.Messages, req.MaxTokens)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	return text, nil
}
