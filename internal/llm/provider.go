package llm

import (
	"context"
	"fmt"
)

// Roles accepted in Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider abstracts an LLM backend (Anthropic, OpenAI, Ollama, Vertex).
type Provider interface {
	// Complete sends a conversation and returns the text response.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "anthropic", "openai").
	Name() string
}

// CompletionRequest is a provider-agnostic request. Messages are sent in
// order; the last one is normally the user turn being answered.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
}

// UserPrompt is shorthand for a single-turn conversation.
func UserPrompt(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

// ProviderOptions selects and configures a backend in NewProvider.
type ProviderOptions struct {
	Options

	// Vertex AI settings, used only by the "vertex" provider.
	GCPProject string
	GCPRegion  string
}

// NewProvider creates the appropriate Provider based on the provider name.
func NewProvider(ctx context.Context, name string, opts ProviderOptions) (Provider, error) {
	switch name {
	case "anthropic", "":
		return NewAnthropicProvider(NewClient(opts.Options)), nil
	case "openai", "openrouter":
		baseURL := opts.BaseURL
		if baseURL == "" {
			if name == "openrouter" {
				baseURL = "https://openrouter.ai/api"
			} else {
				baseURL = "https://api.openai.com"
			}
		}
		model := opts.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIProvider(baseURL, opts.APIKey, model), nil
	case "ollama":
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := opts.Model
		if model == "" {
			model = "llama3.2"
		}
		return NewOllamaProvider(baseURL, model), nil
	case "vertex":
		return NewVertexProvider(ctx, opts.GCPProject, opts.GCPRegion, opts.Model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q (supported: anthropic, openai, openrouter, ollama, vertex)", name)
	}
}
