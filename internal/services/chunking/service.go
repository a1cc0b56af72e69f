package chunking

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curator/internal/common"
	"github.com/ternarybob/curator/internal/interfaces"
)

// Service selects the chunking strategy per tenant and applies the
// mandatory fallback from semantic to window chunking.
type Service struct {
	generator interfaces.TextGenerator
	logger    arbor.ILogger
}

// NewService creates the chunking service. The generator may be nil when no
// LLM is configured; tenants requesting the semantic strategy then always
// get window chunks.
func NewService(generator interfaces.TextGenerator, logger arbor.ILogger) interfaces.ChunkingService {
	return &Service{
		generator: generator,
		logger:    logger,
	}
}

// Chunk splits text using the tenant's configured strategy and returns the
// chunks plus the version string of the strategy that actually ran.
func (s *Service) Chunk(ctx context.Context, settings common.TenantSettings, text string) ([]string, string, error) {
	window := NewWindowChunker(settings.WindowSize, settings.Overlap)

	if settings.ChunkingStrategy == "semantic" && s.generator != nil {
		semantic := NewSemanticChunker(s.generator)
		chunks, err := semantic.Chunk(ctx, text)
		if err == nil {
			return chunks, semantic.Version(), nil
		}
		s.logger.Warn().
			Err(err).
			Str("tenant_id", settings.TenantID).
			Msg("Semantic chunking failed, falling back to window strategy")
	}

	return window.Chunk(text), window.Version(), nil
}
