package embeddings

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/interfaces"
)

// OpenAIProvider generates embeddings through the OpenAI batch endpoint.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	dimension int
	logger    arbor.ILogger
}

// NewOpenAIProvider creates an OpenAI embedding provider.
func NewOpenAIProvider(apiKey, model string, dimension int, logger arbor.ILogger) (interfaces.EmbeddingProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set CURATOR_OPENAI_API_KEY or embedding.openai.api_key in config)")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &OpenAIProvider{
		client:    openai.NewClient(apiKey),
		model:     model,
		dimension: dimension,
		logger:    logger,
	}, nil
}

// EmbedBatch embeds all texts in a single API call and returns the vectors
// in input order.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(p.model),
		Input:      texts,
		Dimensions: p.dimension,
	})
	if err != nil {
		wrapped := fmt.Errorf("openai embedding request failed: %w", err)
		// Only a definitive client error fails outright; transport failures,
		// rate limits and server errors retry.
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
			apiErr.HTTPStatusCode != 429 {
			return nil, wrapped
		}
		return nil, Retryable(wrapped)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	// The response is not guaranteed to be in request order; Index says
	// which input each embedding belongs to.
	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("openai returned embedding with out-of-range index %d", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	for i, vector := range vectors {
		if len(vector) == 0 {
			return nil, fmt.Errorf("openai returned empty embedding at index %d", i)
		}
	}
	return vectors, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return "openai" }

// ModelName returns the embedding model identifier.
func (p *OpenAIProvider) ModelName() string { return p.model }

// Dimension returns the configured vector dimension.
func (p *OpenAIProvider) Dimension() int { return p.dimension }
