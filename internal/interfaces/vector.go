package interfaces

import (
	"context"

	"github.com/ternarybob/curator/internal/models"
)

// VectorIndex is the write-side adapter for the external vector store.
// Collections are scoped per tenant and source type.
type VectorIndex interface {
	// EnsureCollection creates the tenant/source-type collection when it
	// does not exist yet.
	EnsureCollection(ctx context.Context, tenantID string, sourceType models.SourceType, dimension int) error

	// ReplaceFragments atomically (from the reader's point of view: delete
	// first, then upsert) replaces all fragments for an item. A failure
	// after the delete leaves the item with zero fragments; the caller
	// records the failed status.
	ReplaceFragments(ctx context.Context, tenantID string, sourceType models.SourceType, itemID string, fragments []*models.Fragment) error

	// DeleteItem removes every fragment belonging to the item
	DeleteItem(ctx context.Context, tenantID string, sourceType models.SourceType, itemID string) error

	// CountFragments returns the number of fragments stored for the item
	CountFragments(ctx context.Context, tenantID string, sourceType models.SourceType, itemID string) (int, error)
}
