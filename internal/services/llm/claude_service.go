package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
)

const claudeMaxTokens = 8192

// ClaudeService implements the TextGenerator interface using the Anthropic
// Claude API.
type ClaudeService struct {
	model  string
	logger arbor.ILogger
	client *anthropic.Client
}

// NewClaudeService creates a Claude-backed text generator.
func NewClaudeService(apiKey, model string, logger arbor.ILogger) (interfaces.TextGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set CURATOR_LLM_API_KEY or llm.api_key in config)")
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	logger.Info().Str("model", model).Msg("Claude text generator initialized")

	return &ClaudeService{
		model:  model,
		logger: logger,
		client: &client,
	}, nil
}

// Generate returns the model's completion for a single user prompt.
func (s *ClaudeService) Generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(claudeMaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(0.2),
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from model")
	}

	return response.String(), nil
}

// ModelName returns the configured Claude model identifier.
func (s *ClaudeService) ModelName() string {
	return s.model
}
