package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiProvider generates embeddings through the Gemini batch endpoint.
type GeminiProvider struct {
	client    *genai.Client
	model     string
	dimension int
	logger    arbor.ILogger
}

// NewGeminiProvider creates a Gemini embedding provider.
func NewGeminiProvider(apiKey, model string, dimension int, logger arbor.ILogger) (interfaces.EmbeddingProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set CURATOR_GEMINI_API_KEY or embedding.gemini.api_key in config)")
	}
	if model == "" {
		model = "text-embedding-004"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		model:     model,
		dimension: dimension,
		logger:    logger,
	}, nil
}

// EmbedBatch embeds all texts in a single API call and returns the vectors
// in input order.
func (p *GeminiProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	outputDim := int32(p.dimension)
	config := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	result, err := p.client.Models.EmbedContent(ctx, p.model, contents, config)
	if err != nil {
		wrapped := fmt.Errorf("gemini embedding request failed: %w", err)
		// Only a definitive client error fails outright; transport failures,
		// rate limits and server errors retry.
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
			return nil, wrapped
		}
		return nil, Retryable(wrapped)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", got, len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("gemini returned empty embedding at index %d", i)
		}
		vectors[i] = embedding.Values
	}
	return vectors, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string { return "gemini" }

// ModelName returns the embedding model identifier.
func (p *GeminiProvider) ModelName() string { return p.model }

// Dimension returns the configured vector dimension.
func (p *GeminiProvider) Dimension() int { return p.dimension }
