package embeddings

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
)

const maxBatchSize = 100

// providerFactory builds a provider from resolved tenant settings.
// Swappable in tests.
type providerFactory func(settings common.TenantSettings, logger arbor.ILogger) (interfaces.EmbeddingProvider, error)

// Gateway resolves the embedding provider per tenant and embeds texts with
// batching and retry applied. Providers are cached per tenant.
type Gateway struct {
	retryConfig *RetryConfig
	factory     providerFactory
	logger      arbor.ILogger

	mu        sync.Mutex
	providers map[string]interfaces.EmbeddingProvider
}

// NewGateway creates the embedding gateway.
func NewGateway(logger arbor.ILogger) interfaces.EmbeddingGateway {
	return &Gateway{
		retryConfig: NewDefaultRetryConfig(),
		factory:     newProvider,
		logger:      logger,
		providers:   make(map[string]interfaces.EmbeddingProvider),
	}
}

// newProvider builds the concrete provider selected by the tenant settings.
func newProvider(settings common.TenantSettings, logger arbor.ILogger) (interfaces.EmbeddingProvider, error) {
	switch settings.EmbeddingProvider {
	case "gemini":
		return NewGeminiProvider(settings.GeminiAPIKey, settings.EmbeddingModel, settings.EmbeddingDim, logger)
	case "openai":
		return NewOpenAIProvider(settings.OpenAIAPIKey, settings.EmbeddingModel, settings.EmbeddingDim, logger)
	case "ollama":
		return NewOllamaProvider(settings.OllamaBaseURL, settings.EmbeddingModel, settings.EmbeddingDim, logger)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.EmbeddingProvider)
	}
}

func (g *Gateway) provider(settings common.TenantSettings) (interfaces.EmbeddingProvider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if provider, ok := g.providers[settings.TenantID]; ok {
		return provider, nil
	}

	provider, err := g.factory(settings, g.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding provider for tenant %s: %w", settings.TenantID, err)
	}
	g.providers[settings.TenantID] = provider

	g.logger.Info().
		Str("tenant_id", settings.TenantID).
		Str("provider", provider.Name()).
		Str("model", provider.ModelName()).
		Msg("Embedding provider initialized")

	return provider, nil
}

// Embed returns exactly one vector per input text, in input order. Inputs
// are split into provider-sized batches; each batch is retried on transient
// failure. Any batch error fails the whole call, never partial results.
func (g *Gateway) Embed(ctx context.Context, settings common.TenantSettings, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	provider, err := g.provider(settings)
	if err != nil {
		return nil, err
	}

	batchSize := settings.BatchSize
	if batchSize <= 0 || batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var batchVectors [][]float32
		err := WithRetry(ctx, g.logger, g.retryConfig, func() error {
			var embedErr error
			batchVectors, embedErr = provider.EmbedBatch(ctx, batch)
			return embedErr
		})
		if err != nil {
			return nil, fmt.Errorf("embedding batch %d-%d failed: %w", start, end, err)
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("provider returned %d vectors for batch of %d", len(batchVectors), len(batch))
		}

		vectors = append(vectors, batchVectors...)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding produced %d vectors for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

// Dimension returns the vector dimension configured for the tenant.
func (g *Gateway) Dimension(settings common.TenantSettings) int {
	return settings.EmbeddingDim
}
