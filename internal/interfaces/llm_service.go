package interfaces

import (
	"context"
)

// TextGenerator defines the single-prompt completion operation used by
// semantic chunking. Implementations wrap cloud LLM APIs (Gemini, Claude).
type TextGenerator interface {
	// Generate returns the model's text completion for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the underlying model identifier
	ModelName() string
}
