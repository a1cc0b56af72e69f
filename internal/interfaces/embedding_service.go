package interfaces

import (
	"context"

	"github.com/ternarybob/curator/internal/common"
)

// EmbeddingProvider is one concrete embedding backend.
type EmbeddingProvider interface {
	// EmbedBatch returns one vector per input text, in input order. The
	// batch is never larger than the provider's batch limit.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Get model information
	Name() string
	ModelName() string
	Dimension() int
}

// EmbeddingGateway resolves the provider for a tenant and embeds texts
// through it with batching and retry applied.
type EmbeddingGateway interface {
	// Embed returns exactly one vector per input text, in input order, or
	// an error. Never partial results.
	Embed(ctx context.Context, settings common.TenantSettings, texts []string) ([][]float32, error)

	// Dimension returns the vector dimension for the tenant's provider
	Dimension(settings common.TenantSettings) int
}
