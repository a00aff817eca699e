package assistant

import (
	"context"
	"fmt"
	"os"

	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/config"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/models"
	"google.golang.org/genai"
)

// Gemini implements Generator against the Gemini API.
type Gemini struct {
	client       *genai.Client
	model        string
	maxTokens    int32
	systemPrompt string
}

// NewGemini creates a Gemini generator from assistant configuration. The API
// key is read from the configured environment variable.
func NewGemini(ctx context.Context, cfg config.AssistantConfig) (*Gemini, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("assistant: %s is not set", cfg.APIKeyEnv)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("assistant: gemini client: %w", err)
	}

	return &Gemini{
		client:       client,
		model:        cfg.Model,
		maxTokens:    int32(cfg.MaxTokens),
		systemPrompt: cfg.SystemPrompt,
	}, nil
}

var _ Generator = (*Gemini)(nil)

// GenerateReply builds the bounded prompt and asks Gemini for a reply.
// Output length is bounded by the token budget only; channel-specific text
// limits are the outbound dispatcher's concern.
func (g *Gemini) GenerateReply(ctx context.Context, sessionID string, history []models.ConversationMessage, newMessage string) (string, error) {
	prompt := RenderPrompt(BuildContext(g.systemPrompt, history, newMessage))

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", &GenerationError{Backend: "gemini", Err: err}
	}

	if result == nil || len(result.Candidates) == 0 ||
		result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &GenerationError{Backend: "gemini", Err: fmt.Errorf("empty response for session %s", sessionID)}
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
