// Package chat relays a conversation about one catalog document to the
// configured language model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/divyekant/docportal/internal/catalog"
	"github.com/divyekant/docportal/internal/llm"
)

// DefaultMaxTokens caps each assistant reply.
const DefaultMaxTokens = 1024

// excerptLimit bounds how much document text goes into the system prompt.
const excerptLimit = 12000

var (
	// ErrFailed is the only error a relay call reports for upstream trouble.
	ErrFailed = errors.New("failed to get AI response, please try again")
	// ErrInvalidRequest means the request was rejected before any call was made.
	ErrInvalidRequest = errors.New("invalid chat request")
)

// Turn is one prior message in the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a new user message about a document plus the turns before it.
type Request struct {
	DocumentID int    `json:"documentId"`
	Message    string `json:"message"`
	History    []Turn `json:"history"`
}

// Lookup resolves a document id to its catalog entry.
type Lookup func(id int) (catalog.Entry, bool)

// Relay forwards chat requests to a provider. It never retries.
type Relay struct {
	provider  llm.Provider
	model     string
	maxTokens int
	lookup    Lookup
	logger    *slog.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithLookup lets the relay add the document's title and text to the
// system prompt.
func WithLookup(fn Lookup) Option {
	return func(r *Relay) { r.lookup = fn }
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.maxTokens = n
		}
	}
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// New creates a Relay. An empty model lets the provider pick its default.
func New(provider llm.Provider, model string, opts ...Option) *Relay {
	r := &Relay{
		provider:  provider,
		model:     model,
		maxTokens: DefaultMaxTokens,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Send validates req, sends it and returns the assistant's reply text.
// Upstream failures are logged and reported as ErrFailed.
func (r *Relay) Send(ctx context.Context, req Request) (string, error) {
	msgs, err := Messages(req)
	if err != nil {
		return "", err
	}

	reply, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model:     r.model,
		System:    r.systemPrompt(req.DocumentID),
		Messages:  msgs,
		MaxTokens: r.maxTokens,
	})
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		r.logger.Error("chat: relay failed", "provider", r.provider.Name(), "document", req.DocumentID, "error", err)
		return "", ErrFailed
	}
	return reply, nil
}

// Messages turns a request into the outbound message list: prior turns in
// order, then the new user message.
func Messages(req Request) ([]llm.Message, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidRequest)
	}
	msgs := make([]llm.Message, 0, len(req.History)+1)
	for i, t := range req.History {
		if t.Role != llm.RoleUser && t.Role != llm.RoleAssistant {
			return nil, fmt.Errorf("%w: history[%d] has role %q", ErrInvalidRequest, i, t.Role)
		}
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Message}), nil
}

func (r *Relay) systemPrompt(id int) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant analyzing a document.\n")
	fmt.Fprintf(&b, "You should answer questions about document %d.\n", id)
	b.WriteString("Be concise and accurate in your responses.")

	if r.lookup == nil {
		return b.String()
	}
	entry, ok := r.lookup(id)
	if !ok {
		return b.String()
	}
	fmt.Fprintf(&b, "\n\nDocument title: %s", entry.Title)
	if entry.Summary != "" {
		fmt.Fprintf(&b, "\nSummary: %s", entry.Summary)
	}
	if text := excerpt(entry.TextContent); text != "" {
		fmt.Fprintf(&b, "\n\n<document>\n%s\n</document>", text)
	}
	return b.String()
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptLimit {
		return s
	}
	return string(runes[:excerptLimit]) + " [...]"
}
