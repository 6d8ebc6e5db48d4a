package llm

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexProvider implements Provider for Gemini models on Vertex AI.
// Credentials come from Application Default Credentials.
type VertexProvider struct {
	client *genai.Client
	model  string
}

// NewVertexProvider connects to Vertex AI in the given project and region.
func NewVertexProvider(ctx context.Context, projectID, region, model string) (*VertexProvider, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex: project and region cannot be empty")
	}
	if model == "" {
		model = "gemini-1.5-pro"
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("vertex: new client: %w", err)
	}
	return &VertexProvider{client: client, model: model}, nil
}

func (p *VertexProvider) Name() string { return "vertex" }

// Close releases the underlying gRPC connection.
func (p *VertexProvider) Close() error {
	return p.client.Close()
}

func (p *VertexProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("vertex: no messages to send")
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != RoleUser {
		return "", fmt.Errorf("vertex: last message must be from the user, got %q", last.Role)
	}

	name := p.model
	if req.Model != "" {
		name = req.Model
	}

	// A fresh model handle per request keeps the system instruction local to it.
	model := p.client.GenerativeModel(name)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	cs := model.StartChat()
	for _, m := range req.Messages[:len(req.Messages)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  vertexRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("vertex: send message: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("vertex: no text in response")
	}
	return sb.String(), nil
}

// vertexRole maps conversation roles onto Gemini's "user"/"model" pair.
func vertexRole(role string) string {
	if role == RoleAssistant {
		return "model"
	}
	return "user"
}
