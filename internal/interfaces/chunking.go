package interfaces

import (
	"context"

	"github.com/ternarybob/curator/internal/common"
)

// ChunkingService splits raw text into fragments according to the tenant's
// configured strategy.
type ChunkingService interface {
	// Chunk splits text and returns the chunks together with the version
	// string of the strategy that actually produced them (the semantic
	// strategy falls back to the window strategy on failure).
	Chunk(ctx context.Context, settings common.TenantSettings, text string) ([]string, string, error)
}
