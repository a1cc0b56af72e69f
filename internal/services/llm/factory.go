package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
)

// NewTextGenerator creates the configured text generator, or nil when no
// LLM is configured. A nil generator disables the semantic chunking
// strategy; window chunking still works.
func NewTextGenerator(cfg *common.Config, logger arbor.ILogger) (interfaces.TextGenerator, error) {
	apiKey := cfg.LLM.APIKey
	if apiKey == "" && cfg.LLM.Provider == "gemini" {
		// Reuse the embedding key when both stacks are Gemini
		apiKey = cfg.Embedding.Gemini.APIKey
	}
	if apiKey == "" {
		logger.Info().Msg("No LLM API key configured, semantic chunking disabled")
		return nil, nil
	}

	switch cfg.LLM.Provider {
	case "gemini":
		return NewGeminiService(apiKey, cfg.LLM.Model, logger)
	case "claude":
		return NewClaudeService(apiKey, cfg.LLM.Model, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}
