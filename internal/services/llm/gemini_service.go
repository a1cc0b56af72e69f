package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiService implements the TextGenerator interface using the Gemini API.
type GeminiService struct {
	model  string
	logger arbor.ILogger
	client *genai.Client
}

// NewGeminiService creates a Gemini-backed text generator.
func NewGeminiService(apiKey, model string, logger arbor.ILogger) (interfaces.TextGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set CURATOR_LLM_API_KEY or llm.api_key in config)")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Info().Str("model", model).Msg("Gemini text generator initialized")

	return &GeminiService{
		model:  model,
		logger: logger,
		client: client,
	}, nil
}

// Generate returns the model's completion for a single user prompt.
func (s *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	// Take the first candidate with non-empty text
	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from model")
	}

	return response.String(), nil
}

// ModelName returns the configured Gemini model identifier.
func (s *GeminiService) ModelName() string {
	return s.model
}
