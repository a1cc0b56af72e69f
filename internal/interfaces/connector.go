package interfaces

import (
	"context"

	"github.com/ternarybob/curator/internal/models"
)

// OrphanPolicy controls what a sync run does with stored items that no
// longer appear in a source's listing.
type OrphanPolicy string

const (
	// OrphanPolicyDelete removes orphaned items and their fragments. Only
	// safe for sources whose listing is a full snapshot.
	OrphanPolicyDelete OrphanPolicy = "delete"

	// OrphanPolicyAdvisory flags orphans in the run summary but keeps
	// them. Used for paginated or windowed listings (feeds, channels).
	OrphanPolicyAdvisory OrphanPolicy = "advisory"
)

// SourceConnector enumerates and fetches content for one source type.
type SourceConnector interface {
	// Type returns the source type this connector handles
	Type() models.SourceType

	// List enumerates the source's current items. A returned error aborts
	// the sync run for this source before any store mutation.
	List(ctx context.Context, source *models.SourceConfig) ([]models.ExternalItem, error)

	// Fetch retrieves the full text for a listing entry whose Content was
	// not populated by List.
	Fetch(ctx context.Context, source *models.SourceConfig, item models.ExternalItem) (string, error)

	// OrphanPolicy returns how missing items are treated for this source type
	OrphanPolicy() OrphanPolicy
}
