// Package summarize asks a hosted language model for a one-sentence synopsis
// of a document's extracted text.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/divyekant/docportal/internal/llm"
)

// DefaultMaxTokens is the token ceiling for a summary reply.
const DefaultMaxTokens = 1000

const promptTemplate = `Please provide a very brief summary (1 sentence) of the following document text:

%s

WARNINGS
Be direct. Just return the summary, don't explain that the document appears to be about a given topic.`

// Error wraps a failed summarization call.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "summarize: " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Summarizer produces synopses through an llm.Provider.
type Summarizer struct {
	provider  llm.Provider
	model     string
	maxTokens int
}

// New creates a Summarizer. model may be empty to use the provider default;
// maxTokens <= 0 selects DefaultMaxTokens.
func New(provider llm.Provider, model string, maxTokens int) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Summarizer{provider: provider, model: model, maxTokens: maxTokens}
}

// Prompt renders the single user message sent for text.
func Prompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// Summarize sends the full text in one request and returns the reply,
// trimmed. It does not retry; failures come back as *Error.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	reply, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:     s.model,
		Messages:  llm.UserPrompt(Prompt(text)),
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", &Error{Err: err}
	}
	return strings.TrimSpace(reply), nil
}
