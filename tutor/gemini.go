package tutor

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/lessonforge/tutorkit/conversation"
)

// GeminiConfig configures the Google Gemini provider.
type GeminiConfig struct {
	APIKey       string `env:"GEMINI_API_KEY,required"`
	Model        string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	SystemPrompt string `env:"TUTOR_SYSTEM_PROMPT" envDefault:"You are a patient tutor for a language-learning platform. Answer concisely and correct mistakes gently."`
}

// Gemini is a Provider backed by Google's generative AI service.
type Gemini struct {
	client *genai.Client
	model  string
	system string
}

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, err)
	}
	return &Gemini{
		client: client,
		model:  cfg.Model,
		system: cfg.SystemPrompt,
	}, nil
}

func (g *Gemini) Reply(ctx context.Context, history []conversation.Turn, message string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(g.system)},
	}

	cs := model.StartChat()
	cs.History = toGenaiHistory(history)

	res, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", errors.Join(ErrProviderFailure, err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", ErrProviderFailure
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// toGenaiHistory maps conversation turns to the SDK's content format.
// Gemini names the assistant role "model".
func toGenaiHistory(history []conversation.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role == conversation.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return out
}
